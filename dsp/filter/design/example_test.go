package design_test

import (
	"fmt"

	"github.com/cwbudde/algo-fx/dsp/filter/design"
)

func ExampleButterworthLowpass() {
	c := design.ButterworthLowpass(2000, 44100)

	fmt.Printf("DC gain: %.4f\n", c.DCGain())
	fmt.Printf("2000 Hz: %.2f dB\n", c.MagnitudeDB(2000, 44100))
	// Output:
	// DC gain: 1.0000
	// 2000 Hz: -3.01 dB
}
