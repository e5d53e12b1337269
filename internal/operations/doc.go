// Package operations runs the survey pipeline: an ordered set of stages
// (cleaning, analysis, ml, charts, report, publish) executed one after the
// other on a shared run state, each traced with its own span and recorded in
// the stage metrics.
package operations
