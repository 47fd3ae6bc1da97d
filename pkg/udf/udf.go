// Package udf defines how user-defined functions are identified and how they
// declare metadata that the compiler can read without running them.
package udf

// Function is a user-defined function executed by an operator.
type Function interface {
	Name() string
}

// ConstantFielder is implemented by functions that declare which input fields
// they copy unchanged to the output, in "<source>-><target>" form.
type ConstantFielder interface {
	ConstantFields() []string
}

// Projection is one output column of a projecting function.
type Projection struct {
	Name string
	Expr string // SQL expression over input column names
}

// Projector is implemented by functions whose output is a list of SQL column
// expressions evaluated against the input record.
type Projector interface {
	Projections() []Projection
}

type named string

func (n named) Name() string { return string(n) }

// Named returns a function identified only by its name.
func Named(name string) Function { return named(name) }

type annotated struct {
	Function
	specs []string
}

func (a annotated) ConstantFields() []string {
	return append([]string(nil), a.specs...)
}

// Annotate attaches constant field declarations to fn.
func Annotate(fn Function, specs ...string) Function {
	return annotated{Function: fn, specs: append([]string(nil), specs...)}
}
