// Package signal generates the deterministic test signals fed to the
// effects by the render tool and the tests.
package signal
