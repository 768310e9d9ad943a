// Package convolver runs the convolution stage of the pipeline.
//
// It walks a model grid, convolves every model with every filter on a worker
// pool and seals the resulting table in the convolved store.
package convolver
