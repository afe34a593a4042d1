// Package templates names the remotely hosted scaffold templates and renders
// them. Each Template is parameterized by the variable set it declares, so a
// template can only be rendered with the context it expects.
package templates
