package extension

import (
	"fmt"
	"reflect"

	"github.com/viant/structology/conv"
	"github.com/viant/x"
)

// Binder converts raw generator arguments into registered option types.
type Binder struct {
	types     *Types
	converter *conv.Converter
}

func (b *Binder) Types() *Types {
	return b.types
}

// RegisterType adds an option type to the binder registry.
func (b *Binder) RegisterType(dataType *x.Type) {
	b.types.Register(dataType)
}

// Bind instantiates the named registered type and populates it from raw
// arguments. The returned value is a pointer to the new instance.
func (b *Binder) Bind(typeName string, args map[string]interface{}) (interface{}, error) {
	dataType := b.types.Lookup(typeName)
	if dataType == nil {
		return nil, fmt.Errorf("unknown option type: %v", typeName)
	}
	rType := dataType.Type
	if rType.Kind() == reflect.Ptr {
		rType = rType.Elem()
	}
	dest := reflect.New(rType).Interface()
	if err := b.BindTo(args, dest); err != nil {
		return nil, err
	}
	return dest, nil
}

// BindTo populates dest, which must be a pointer, from raw arguments.
func (b *Binder) BindTo(args map[string]interface{}, dest interface{}) error {
	if dest == nil {
		return fmt.Errorf("option destination was nil")
	}
	if len(args) == 0 {
		return nil
	}
	if err := b.converter.Convert(args, dest); err != nil {
		return fmt.Errorf("failed to bind options into %T: %w", dest, err)
	}
	return nil
}

// NewBinder creates a binder seeded with the supplied option types.
func NewBinder(goTypes ...*x.Type) *Binder {
	options := conv.DefaultOptions()
	options.ClonePointerData = true
	options.IgnoreUnmapped = true
	options.AccessUnexported = true

	ret := &Binder{
		types:     NewTypes(),
		converter: conv.NewConverter(options),
	}
	for _, t := range goTypes {
		if t != nil {
			ret.types.Register(t)
		}
	}
	return ret
}
