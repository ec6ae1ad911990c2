package server

import (
	"fmt"
	"sort"

	"github.com/jhump/protoreflect/desc"
	"github.com/jhump/protoreflect/dynamic"
	"google.golang.org/protobuf/types/descriptorpb"

	"github.com/funvibe/matchkit/internal/evaluator"
	"github.com/funvibe/matchkit/internal/typesystem"
)

// valueCodec converts between engine values and matchkit.v1.Value messages.
type valueCodec struct {
	value  *desc.MessageDescriptor
	object *desc.MessageDescriptor
	kind   *desc.OneOfDescriptor
}

func newValueCodec(fd *desc.FileDescriptor) (*valueCodec, error) {
	vmd, err := findMessage(fd, "Value")
	if err != nil {
		return nil, err
	}
	omd, err := findMessage(fd, "Object")
	if err != nil {
		return nil, err
	}
	c := &valueCodec{value: vmd, object: omd}
	for _, od := range vmd.GetOneOfs() {
		if od.GetName() == "kind" {
			c.kind = od
		}
	}
	if c.kind == nil {
		return nil, fmt.Errorf("matchkit.v1.Value has no kind oneof")
	}
	return c, nil
}

// toMessage encodes obj. A nil obj encodes as null.
func (c *valueCodec) toMessage(obj evaluator.Object) (*dynamic.Message, error) {
	msg := dynamic.NewMessage(c.value)
	var err error
	switch o := obj.(type) {
	case nil, *evaluator.Nil:
		err = msg.TrySetFieldByName("null_value", true)
	case *evaluator.Integer:
		err = msg.TrySetFieldByName("int_value", o.Value)
	case *evaluator.String:
		err = msg.TrySetFieldByName("str_value", o.Value)
	case *evaluator.Boolean:
		err = msg.TrySetFieldByName("bool_value", o.Value)
	case *evaluator.Instance:
		om := dynamic.NewMessage(c.object)
		if err := om.TrySetFieldByName("type", string(o.TypeTag)); err != nil {
			return nil, err
		}
		names := make([]string, 0, len(o.Fields))
		for name := range o.Fields {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fm, err := c.toMessage(o.Fields[name])
			if err != nil {
				return nil, fmt.Errorf("field %s: %w", name, err)
			}
			if err := om.TryPutMapFieldByName("fields", name, fm); err != nil {
				return nil, fmt.Errorf("field %s: %w", name, err)
			}
		}
		err = msg.TrySetFieldByName("object", om)
	default:
		return nil, fmt.Errorf("unsupported value type %s", obj.Type())
	}
	if err != nil {
		return nil, err
	}
	return msg, nil
}

// toObject decodes msg. Object tags must be declared in types; a nil types
// accepts any tag, which is what clients want.
func (c *valueCodec) toObject(msg *dynamic.Message, types *typesystem.Hierarchy) (evaluator.Object, error) {
	if msg == nil {
		return evaluator.NULL, nil
	}
	fd, val := msg.GetOneOfField(c.kind)
	if fd == nil {
		return evaluator.NULL, nil
	}

	switch fd.GetType() {
	case descriptorpb.FieldDescriptorProto_TYPE_INT64:
		if i, ok := val.(int64); ok {
			return &evaluator.Integer{Value: i}, nil
		}
	case descriptorpb.FieldDescriptorProto_TYPE_STRING:
		if s, ok := val.(string); ok {
			return &evaluator.String{Value: s}, nil
		}
	case descriptorpb.FieldDescriptorProto_TYPE_BOOL:
		if fd.GetName() == "null_value" {
			return evaluator.NULL, nil
		}
		if b, ok := val.(bool); ok {
			if b {
				return evaluator.TRUE, nil
			}
			return evaluator.FALSE, nil
		}
	case descriptorpb.FieldDescriptorProto_TYPE_MESSAGE:
		om, ok := val.(*dynamic.Message)
		if !ok {
			break
		}
		return c.objectToInstance(om, types)
	}
	return nil, fmt.Errorf("unsupported conversion for %s (%T)", fd.GetName(), val)
}

func (c *valueCodec) objectToInstance(om *dynamic.Message, types *typesystem.Hierarchy) (evaluator.Object, error) {
	name, _ := om.GetFieldByName("type").(string)
	tag := typesystem.Tag(name)
	if tag == "" || tag == typesystem.Any || tag == typesystem.Null || typesystem.IsSealed(tag) {
		return nil, fmt.Errorf("%q is not an object type", name)
	}
	if types != nil && !types.Has(tag) {
		return nil, typesystem.NewUnknownTypeError(tag)
	}

	fields := make(map[string]evaluator.Object)
	raw, _ := om.GetFieldByName("fields").(map[interface{}]interface{})
	for k, v := range raw {
		key, ok := k.(string)
		if !ok {
			continue
		}
		vm, ok := v.(*dynamic.Message)
		if !ok {
			return nil, fmt.Errorf("field %s: unexpected %T", key, v)
		}
		obj, err := c.toObject(vm, types)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", key, err)
		}
		fields[key] = obj
	}
	return evaluator.NewInstance(tag, fields), nil
}
