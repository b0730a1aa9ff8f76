// Package pyhost exposes a built-in module, "_host_rpc" (spec §4.E
// "module": "namespace backed by a dict"), giving the CORE's external
// collaborators -- "specified only by their interfaces" per SPEC_FULL
// §1 -- a concrete, real transport: a Python built-in function can
// dial and invoke a gRPC method without the core depending on any
// specific service's generated stubs.
//
// Grounded on the teacher's internal/evaluator/builtins_grpc.go
// (GrpcConnObject, grpcConnect/grpcLoadProto/grpcInvoke, protoreflect
// dynamic-message construction) and internal/modules/
// virtual_packages_grpc.go (registering a virtual package's builtins
// under a module namespace), re-targeted at pyjox's Value/DictObj/
// builtin_function shapes instead of funxy's Object/Map/Builtin ones.
package pyhost

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/jhump/protoreflect/desc"
	"github.com/jhump/protoreflect/desc/protoparse"
	"github.com/jhump/protoreflect/dynamic"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/descriptorpb"

	"github.com/funvibe/pyjox/internal/pybuiltin"
	"github.com/funvibe/pyjox/internal/pyerr"
	"github.com/funvibe/pyjox/internal/pytype"
)

// ConnType is the opaque "host connection" value type dial_host
// returns and call_host consumes. It is not one of spec §4.E's fixed
// built-in types -- it is exactly the kind of external-collaborator
// value §1 says the CORE only needs to pass around, never inspect.
var ConnType = pytype.NewType("_host_conn", 0, nil)

func init() {
	must(ConnType.DefineSlot(pytype.SlotRepr, pytype.UnaryOp(func(self pytype.Value) (pytype.Value, error) {
		c := self.Obj.(*connObj)
		if c.conn == nil {
			return pybuiltin.NewStr("<_host_conn closed>"), nil
		}
		return pybuiltin.NewStr(fmt.Sprintf("<_host_conn %s>", c.conn.Target())), nil
	})))
	ConnType.Finish()
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

type connObj struct {
	conn *grpc.ClientConn
}

func (c *connObj) Kind() string             { return "_host_conn" }
func (c *connObj) Repr() string              { return "<_host_conn>" }
func (c *connObj) RuntimeType() *pytype.Type { return ConnType }

// protoRegistry mirrors the teacher's package-level protoRegistry:
// every loaded .proto file's descriptor, keyed by filename, searched
// linearly by dial_host/call_host for a matching service or message.
var (
	protoRegistryMu sync.RWMutex
	protoRegistry   = make(map[string]*desc.FileDescriptor)
)

// Module builds the "_host_rpc" module value (spec §4.E "module"):
// a namespace dict holding the two natively-implemented entry points,
// call_host and dial_host (SPEC_FULL §2).
func Module() pytype.Value {
	m := pybuiltin.NewModule("_host_rpc")
	mod, _ := pybuiltin.AsModule(m)
	mod.Init(map[string]pytype.Value{
		"dial_host":  pybuiltin.NewBuiltinFunction("dial_host", "dial_host(target, proto_path) -> connection", pybuiltin.BuiltinVarargs, dialHost),
		"call_host":  pybuiltin.NewBuiltinFunction("call_host", "call_host(conn, method_path, request) -> response", pybuiltin.BuiltinVarargs, callHost),
	})
	return m
}

// dialHost(target, proto_path) dials target and loads proto_path's
// descriptors into protoRegistry, mirroring grpcConnect followed by
// grpcLoadProto -- collapsed into one call since a host connection is
// useless without its service descriptors loaded.
func dialHost(args []pytype.Value, _ *pybuiltin.DictObj) (pytype.Value, error) {
	if len(args) != 2 {
		return pytype.Value{}, pyerr.NewTypeError("dial_host() takes 2 arguments (target, proto_path), got %d", len(args))
	}
	target, ok := pybuiltin.AsStrValue(args[0])
	if !ok {
		return pytype.Value{}, pyerr.NewTypeError("dial_host(): target must be a str")
	}
	protoPath, ok := pybuiltin.AsStrValue(args[1])
	if !ok {
		return pytype.Value{}, pyerr.NewTypeError("dial_host(): proto_path must be a str")
	}

	parser := protoparse.Parser{ImportPaths: []string{"."}}
	fds, err := parser.ParseFiles(protoPath)
	if err != nil {
		return pytype.Value{}, pyerr.NewValueError("dial_host(): failed to parse proto: %s", err)
	}
	protoRegistryMu.Lock()
	for _, fd := range fds {
		protoRegistry[fd.GetName()] = fd
	}
	protoRegistryMu.Unlock()

	conn, err := grpc.NewClient(target, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return pytype.Value{}, pyerr.NewValueError("dial_host(): %s", err)
	}
	return pytype.ObjVal(&connObj{conn: conn}), nil
}

// callHost(conn, method_path, request) invokes method_path
// ("package.Service/Method") on conn with request (a dict of scalar
// fields) and returns the response as a dict, mirroring grpcInvoke's
// find-descriptor / build-request / invoke / decode-response pipeline.
func callHost(args []pytype.Value, _ *pybuiltin.DictObj) (pytype.Value, error) {
	if len(args) != 3 {
		return pytype.Value{}, pyerr.NewTypeError("call_host() takes 3 arguments (conn, method_path, request), got %d", len(args))
	}
	c, ok := args[0].Obj.(*connObj)
	if !ok || args[0].K != pytype.KObj {
		return pytype.Value{}, pyerr.NewTypeError("call_host(): conn must be a _host_conn")
	}
	if c.conn == nil {
		return pytype.Value{}, pyerr.NewValueError("call_host(): connection is closed")
	}
	methodPath, ok := pybuiltin.AsStrValue(args[1])
	if !ok {
		return pytype.Value{}, pyerr.NewTypeError("call_host(): method_path must be a str")
	}
	request, ok := pybuiltin.AsDict(args[2])
	if !ok {
		return pytype.Value{}, pyerr.NewTypeError("call_host(): request must be a dict")
	}

	md, err := findMethodDescriptor(methodPath)
	if err != nil {
		return pytype.Value{}, pyerr.NewValueError("call_host(): %s", err)
	}

	reqMsg := dynamic.NewMessage(md.GetInputType())
	if err := dictToMessage(request, reqMsg); err != nil {
		return pytype.Value{}, pyerr.NewValueError("call_host(): building request: %s", err)
	}
	respMsg := dynamic.NewMessage(md.GetOutputType())

	fullMethod := fmt.Sprintf("/%s/%s", md.GetService().GetFullyQualifiedName(), md.GetName())
	if err := c.conn.Invoke(context.Background(), fullMethod, reqMsg, respMsg); err != nil {
		return pytype.Value{}, pyerr.NewValueError("call_host(): %s", err)
	}

	return messageToDict(respMsg), nil
}

func findMethodDescriptor(path string) (*desc.MethodDescriptor, error) {
	slash := -1
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			slash = i
			break
		}
	}
	if slash < 0 {
		return nil, fmt.Errorf("invalid method path %q, expected 'package.Service/Method'", path)
	}
	serviceName, methodName := path[:slash], path[slash+1:]

	protoRegistryMu.RLock()
	defer protoRegistryMu.RUnlock()
	for _, fd := range protoRegistry {
		if svc := fd.FindService(serviceName); svc != nil {
			if m := svc.FindMethodByName(methodName); m != nil {
				return m, nil
			}
		}
	}
	return nil, fmt.Errorf("method %q not found (did you load its proto?)", path)
}

// dictToMessage/messageToDict support scalar field kinds only
// (string/bool/the integer family/float/double) -- enough to exercise
// a real RPC round trip without reimplementing protoreflect's full
// field-kind matrix (repeated/message/map fields), which no component
// in SPEC_FULL needs.
func dictToMessage(d *pybuiltin.DictObj, msg *dynamic.Message) error {
	for _, key := range d.Keys() {
		name, ok := pybuiltin.AsStrValue(key)
		if !ok {
			continue
		}
		fd := msg.GetMessageDescriptor().FindFieldByName(name)
		if fd == nil {
			continue
		}
		val, _, err := d.Get(key)
		if err != nil {
			return err
		}
		pv, err := toProtoScalar(val, fd)
		if err != nil {
			return err
		}
		if err := msg.TrySetField(fd, pv); err != nil {
			return err
		}
	}
	return nil
}

func toProtoScalar(v pytype.Value, fd *desc.FieldDescriptor) (interface{}, error) {
	switch fd.GetType() {
	case descriptorpb.FieldDescriptorProto_TYPE_STRING:
		s, ok := pybuiltin.AsStrValue(v)
		if !ok {
			return nil, fmt.Errorf("field %q: expected str", fd.GetName())
		}
		return s, nil
	case descriptorpb.FieldDescriptorProto_TYPE_BOOL:
		if !v.IsBool() {
			return nil, fmt.Errorf("field %q: expected bool", fd.GetName())
		}
		return v.AsBool(), nil
	case descriptorpb.FieldDescriptorProto_TYPE_FLOAT:
		f, err := toProtoFloat(v, fd)
		if err != nil {
			return nil, err
		}
		return float32(f), nil
	case descriptorpb.FieldDescriptorProto_TYPE_DOUBLE:
		return toProtoFloat(v, fd)
	case descriptorpb.FieldDescriptorProto_TYPE_INT32, descriptorpb.FieldDescriptorProto_TYPE_SINT32, descriptorpb.FieldDescriptorProto_TYPE_SFIXED32:
		if !pybuiltin.IsIntLike(v) {
			return nil, fmt.Errorf("field %q: expected an int", fd.GetName())
		}
		return int32(pybuiltin.IntToBig(v).Int64()), nil
	case descriptorpb.FieldDescriptorProto_TYPE_UINT32, descriptorpb.FieldDescriptorProto_TYPE_FIXED32:
		if !pybuiltin.IsIntLike(v) {
			return nil, fmt.Errorf("field %q: expected an int", fd.GetName())
		}
		return uint32(pybuiltin.IntToBig(v).Int64()), nil
	case descriptorpb.FieldDescriptorProto_TYPE_UINT64, descriptorpb.FieldDescriptorProto_TYPE_FIXED64:
		if !pybuiltin.IsIntLike(v) {
			return nil, fmt.Errorf("field %q: expected an int", fd.GetName())
		}
		return uint64(pybuiltin.IntToBig(v).Int64()), nil
	case descriptorpb.FieldDescriptorProto_TYPE_INT64, descriptorpb.FieldDescriptorProto_TYPE_SINT64, descriptorpb.FieldDescriptorProto_TYPE_SFIXED64:
		if !pybuiltin.IsIntLike(v) {
			return nil, fmt.Errorf("field %q: expected an int", fd.GetName())
		}
		return pybuiltin.IntToBig(v).Int64(), nil
	default:
		return nil, fmt.Errorf("field %q: unsupported scalar field kind %v", fd.GetName(), fd.GetType())
	}
}

func toProtoFloat(v pytype.Value, fd *desc.FieldDescriptor) (float64, error) {
	if v.IsFloat() {
		return v.AsFloat(), nil
	}
	if pybuiltin.IsIntLike(v) {
		f, _ := new(big.Float).SetInt(pybuiltin.IntToBig(v)).Float64()
		return f, nil
	}
	return 0, fmt.Errorf("field %q: expected a number", fd.GetName())
}

func messageToDict(msg *dynamic.Message) pytype.Value {
	dv := pybuiltin.NewDict()
	d, _ := pybuiltin.AsDict(dv)
	for _, fd := range msg.GetMessageDescriptor().GetFields() {
		_ = d.Set(pybuiltin.NewStr(fd.GetName()), fromProtoScalar(msg.GetField(fd)))
	}
	return dv
}

func fromProtoScalar(v interface{}) pytype.Value {
	switch x := v.(type) {
	case string:
		return pybuiltin.NewStr(x)
	case bool:
		return pytype.BoolVal(x)
	case int32:
		return pybuiltin.NewIntFromBig(big.NewInt(int64(x)))
	case int64:
		return pybuiltin.NewIntFromBig(big.NewInt(x))
	case uint32:
		return pybuiltin.NewIntFromBig(new(big.Int).SetUint64(uint64(x)))
	case uint64:
		return pybuiltin.NewIntFromBig(new(big.Int).SetUint64(x))
	case float32:
		return pytype.FloatVal(float64(x))
	case float64:
		return pytype.FloatVal(x)
	default:
		return pytype.NoneVal()
	}
}
