// Package reverb provides a Schroeder reverberator built from prime-length
// delay lines.
//
// The network is four parallel feedback combs whose outputs are summed and
// passed through two cascaded allpass sections. The diffused tail is added
// to the dry input:
//
//	u_k = x + g_k*u_k[n-d_k]         k = 0..3, stores u_k
//	s   = u_0 + u_1 + u_2 + u_3
//	v1  = -g_4*s + s[n-d_4] + s      stores s
//	v2  = -g_5*v1 + v1[n-d_5] + v1   stores v1
//	y   = x + level*v2
//
// Delay lengths d are the primes nearest to sampleRate*tau. Comb gains
// g = 10^(-3*d/(sampleRate*T)) give each comb a 60 dB decay after T
// seconds.
//
// [CombBank] and [AllpassChain] are usable on their own; [Schroeder]
// composes them and implements the stream.Processor block contract.
package reverb
