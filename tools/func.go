package tools

import (
	"context"
	"reflect"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/agentloop/schema"
	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/mitchellh/mapstructure"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report the names the model used
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// Func is a Tool implemented by a Go function.
//
// The parameters schema is reflected from I (`json` and `jsonschema` tags),
// model parameters are decoded into I by `json` name with string/number coercion,
// unknown names are rejected, and I is validated by its `validate` tags.
type Func[I any, O any] struct {
	name        string
	description string
	params      *jsonschema.Schema
	fn          func(context.Context, *I) (*O, error)
}

var _ Tool[struct{}, struct{}] = (*Func[struct{}, struct{}])(nil)

// NewFunc returns a tool with the name and description that runs fn.
func NewFunc[I any, O any](name, description string, fn func(context.Context, *I) (*O, error)) (*Func[I, O], error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("tool name is required")
	}
	if fn == nil {
		return nil, errors.Newf("tool %s: function is required", name)
	}

	sc, err := schema.New(reflect.TypeOf((*I)(nil)).Elem())
	if err != nil {
		return nil, errors.WithMessagef(err, "tool %s", name)
	}

	return &Func[I, O]{
		name:        name,
		description: description,
		params:      sc.Parameters,
		fn:          fn,
	}, nil
}

// MustFunc is NewFunc that panics on error, for static tool tables.
func MustFunc[I any, O any](name, description string, fn func(context.Context, *I) (*O, error)) *Func[I, O] {
	f, err := NewFunc(name, description, fn)
	if err != nil {
		panic(err)
	}
	return f
}

func (f *Func[I, O]) Name() string {
	return f.name
}

func (f *Func[I, O]) Description() string {
	return f.description
}

func (f *Func[I, O]) Parameters() *jsonschema.Schema {
	return f.params
}

// Run validates the input and calls the function.
func (f *Func[I, O]) Run(ctx context.Context, in *I) (*O, error) {
	if in == nil {
		in = new(I)
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}
	return f.fn(ctx, in)
}

// Call decodes the parameters into I and runs the function.
// The result is the value of O, or nil when the function returned no output.
func (f *Func[I, O]) Call(ctx context.Context, params map[string]any) (any, error) {
	in := new(I)
	if err := DecodeParameters(params, in); err != nil {
		return nil, err
	}
	out, err := f.Run(ctx, in)
	if err != nil {
		return nil, err
	}
	if out == nil {
		return nil, nil
	}
	return *out, nil
}

// DecodeParameters decodes the model parameters into the struct pointed by out.
func DecodeParameters(params map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return errors.WithStack(err)
	}
	if err := dec.Decode(params); err != nil {
		return errors.Mark(errors.WithMessage(err, ErrInvalidParameters.Error()), ErrInvalidParameters)
	}
	return nil
}

func validateInput(in any) error {
	rv := reflect.Indirect(reflect.ValueOf(in))
	if rv.Kind() != reflect.Struct {
		return nil
	}
	if err := validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fe.Field()+" failed on "+fe.Tag())
			}
			return errors.Mark(errors.Newf("%s: %s", ErrInvalidParameters.Error(), strings.Join(fields, ", ")), ErrInvalidParameters)
		}
		return errors.Mark(errors.WithMessage(err, ErrInvalidParameters.Error()), ErrInvalidParameters)
	}
	return nil
}
