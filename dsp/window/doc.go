// Package window generates the cosine-sum analysis windows used by the
// spectral measurements in this module.
package window
