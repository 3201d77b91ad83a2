package reverb_test

import (
	"fmt"

	"github.com/cwbudde/algo-fx/dsp/effects/reverb"
)

func ExampleNewSchroeder() {
	r, err := reverb.NewSchroeder(44100)
	if err != nil {
		panic(err)
	}

	fmt.Println(r.DelayLengths())
	// Output: [1321 1543 1759 1987 223 73]
}

func ExampleSchroeder_ProcessSample() {
	r, err := reverb.NewSchroeder(44100, reverb.WithLevel(1))
	if err != nil {
		panic(err)
	}

	fmt.Printf("%.2f\n", r.ProcessSample(1))
	for range 295 {
		r.ProcessSample(0)
	}
	fmt.Printf("%.2f\n", r.ProcessSample(0))
	// Output:
	// 1.36
	// 4.00
}
