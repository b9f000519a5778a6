package changeset

// A Mutation sets the value at a dotted scope path.
type Mutation struct {
	Path  string `form:"path" validate:"required,max=256,dotpath"`
	Value string `form:"value" validate:"max=65536"`
}
