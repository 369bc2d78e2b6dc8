package pdfops

import "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

// newConfig returns a fresh pdfcpu configuration. pdfcpu writes into the
// configuration during an operation, so it is never shared between calls.
func newConfig() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}
