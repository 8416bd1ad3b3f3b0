// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package cairorpc

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/dynamicpb"
	"google.golang.org/protobuf/types/known/anypb"
)

const (
	GRPCServiceName = "starknet.CAIROVM"
	GRPCCallMethod  = "/" + GRPCServiceName + "/Call"

	protoFileName = "starknet/cairo.proto"
)

// The messages of the service, as in
//
//	message CallRequest {
//	  string method = 1;
//	  bytes code = 2;
//	  map<string, google.protobuf.Any> params = 3;
//	}
//
//	message CallResponse {
//	  repeated google.protobuf.Any result = 1;
//	}
var (
	callRequestDesc  protoreflect.MessageDescriptor
	callResponseDesc protoreflect.MessageDescriptor
)

func init() {
	file, err := protodesc.NewFile(cairoProto(), protoregistry.GlobalFiles)
	if err != nil {
		panic(fmt.Sprintf("couldn't build %s: %s", protoFileName, err))
	}
	callRequestDesc = file.Messages().ByName("CallRequest")
	callResponseDesc = file.Messages().ByName("CallResponse")
}

func cairoProto() *descriptorpb.FileDescriptorProto {
	const anyType = ".google.protobuf.Any"
	return &descriptorpb.FileDescriptorProto{
		Name:       proto.String(protoFileName),
		Package:    proto.String("starknet"),
		Syntax:     proto.String("proto3"),
		Dependency: []string{"google/protobuf/any.proto"},
		MessageType: []*descriptorpb.DescriptorProto{
			{
				Name: proto.String("CallRequest"),
				Field: []*descriptorpb.FieldDescriptorProto{
					protoField("method", 1, descriptorpb.FieldDescriptorProto_TYPE_STRING, ""),
					protoField("code", 2, descriptorpb.FieldDescriptorProto_TYPE_BYTES, ""),
					protoRepeated(protoField("params", 3, descriptorpb.FieldDescriptorProto_TYPE_MESSAGE, ".starknet.CallRequest.ParamsEntry")),
				},
				NestedType: []*descriptorpb.DescriptorProto{{
					Name: proto.String("ParamsEntry"),
					Field: []*descriptorpb.FieldDescriptorProto{
						protoField("key", 1, descriptorpb.FieldDescriptorProto_TYPE_STRING, ""),
						protoField("value", 2, descriptorpb.FieldDescriptorProto_TYPE_MESSAGE, anyType),
					},
					Options: &descriptorpb.MessageOptions{MapEntry: proto.Bool(true)},
				}},
			},
			{
				Name: proto.String("CallResponse"),
				Field: []*descriptorpb.FieldDescriptorProto{
					protoRepeated(protoField("result", 1, descriptorpb.FieldDescriptorProto_TYPE_MESSAGE, anyType)),
				},
			},
		},
		Service: []*descriptorpb.ServiceDescriptorProto{{
			Name: proto.String("CAIROVM"),
			Method: []*descriptorpb.MethodDescriptorProto{{
				Name:       proto.String("Call"),
				InputType:  proto.String(".starknet.CallRequest"),
				OutputType: proto.String(".starknet.CallResponse"),
			}},
		}},
	}
}

func protoField(name string, number int32, typ descriptorpb.FieldDescriptorProto_Type, typeName string) *descriptorpb.FieldDescriptorProto {
	f := &descriptorpb.FieldDescriptorProto{
		Name:   proto.String(name),
		Number: proto.Int32(number),
		Label:  descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
		Type:   typ.Enum(),
	}
	if typeName != "" {
		f.TypeName = proto.String(typeName)
	}
	return f
}

func protoRepeated(f *descriptorpb.FieldDescriptorProto) *descriptorpb.FieldDescriptorProto {
	f.Label = descriptorpb.FieldDescriptorProto_LABEL_REPEATED.Enum()
	return f
}

// CallRequest is the request of the gRPC Call operation.
type CallRequest struct {
	Method string
	Code   []byte
	Params map[string]*anypb.Any
}

// CallResponse is the response of the gRPC Call operation.
type CallResponse struct {
	Result []*anypb.Any
}

func (r *CallRequest) message() proto.Message {
	msg := dynamicpb.NewMessage(callRequestDesc)
	fields := callRequestDesc.Fields()
	if r.Method != "" {
		msg.Set(fields.ByName("method"), protoreflect.ValueOfString(r.Method))
	}
	if len(r.Code) > 0 {
		msg.Set(fields.ByName("code"), protoreflect.ValueOfBytes(r.Code))
	}
	if len(r.Params) > 0 {
		params := msg.Mutable(fields.ByName("params")).Map()
		for k, v := range r.Params {
			entry := params.NewValue()
			setAny(entry.Message(), v)
			params.Set(protoreflect.ValueOfString(k).MapKey(), entry)
		}
	}
	return msg
}

func callRequestFromMessage(msg protoreflect.Message) *CallRequest {
	fields := callRequestDesc.Fields()
	req := &CallRequest{
		Method: msg.Get(fields.ByName("method")).String(),
		Code:   msg.Get(fields.ByName("code")).Bytes(),
	}
	params := msg.Get(fields.ByName("params")).Map()
	if params.Len() > 0 {
		req.Params = make(map[string]*anypb.Any, params.Len())
		params.Range(func(k protoreflect.MapKey, v protoreflect.Value) bool {
			req.Params[k.String()] = getAny(v.Message())
			return true
		})
	}
	return req
}

func (r *CallResponse) message() proto.Message {
	msg := dynamicpb.NewMessage(callResponseDesc)
	if len(r.Result) > 0 {
		result := msg.Mutable(callResponseDesc.Fields().ByName("result")).List()
		for _, v := range r.Result {
			elem := result.NewElement()
			setAny(elem.Message(), v)
			result.Append(elem)
		}
	}
	return msg
}

func callResponseFromMessage(msg protoreflect.Message) *CallResponse {
	list := msg.Get(callResponseDesc.Fields().ByName("result")).List()
	resp := &CallResponse{Result: make([]*anypb.Any, list.Len())}
	for i := range resp.Result {
		resp.Result[i] = getAny(list.Get(i).Message())
	}
	return resp
}

// setAny copies [a] into [msg], a google.protobuf.Any of any Go type.
func setAny(msg protoreflect.Message, a *anypb.Any) {
	if a == nil {
		return
	}
	fields := msg.Descriptor().Fields()
	if a.TypeUrl != "" {
		msg.Set(fields.ByName("type_url"), protoreflect.ValueOfString(a.TypeUrl))
	}
	if len(a.Value) > 0 {
		msg.Set(fields.ByName("value"), protoreflect.ValueOfBytes(a.Value))
	}
}

func getAny(msg protoreflect.Message) *anypb.Any {
	fields := msg.Descriptor().Fields()
	return &anypb.Any{
		TypeUrl: msg.Get(fields.ByName("type_url")).String(),
		Value:   msg.Get(fields.ByName("value")).Bytes(),
	}
}

// CAIROVMServer is the server API of the gRPC service.
type CAIROVMServer interface {
	Call(context.Context, *CallRequest) (*CallResponse, error)
}

// RegisterCAIROVMServer registers [srv] on [s].
func RegisterCAIROVMServer(s grpc.ServiceRegistrar, srv CAIROVMServer) {
	s.RegisterService(&cairoVMServiceDesc, srv)
}

var cairoVMServiceDesc = grpc.ServiceDesc{
	ServiceName: GRPCServiceName,
	HandlerType: (*CAIROVMServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Call",
			Handler:    callHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: protoFileName,
}

func callHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := dynamicpb.NewMessage(callRequestDesc)
	if err := dec(in); err != nil {
		return nil, err
	}
	call := func(ctx context.Context, req interface{}) (interface{}, error) {
		resp, err := srv.(CAIROVMServer).Call(ctx, req.(*CallRequest))
		if err != nil {
			return nil, err
		}
		return resp.message(), nil
	}
	req := callRequestFromMessage(in)
	if interceptor == nil {
		return call(ctx, req)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: GRPCCallMethod,
	}
	return interceptor(ctx, req, info, call)
}

// grpcService serves the Call operation from a Router.
type grpcService struct{ router *Router }

func NewGRPCService(router *Router) CAIROVMServer {
	return &grpcService{router: router}
}

func (s *grpcService) Call(ctx context.Context, req *CallRequest) (*CallResponse, error) {
	return &CallResponse{Result: s.router.Handle(ctx, req.Method, req.Params, req.Code)}, nil
}

// CAIROVMClient is the client API of the gRPC service.
type CAIROVMClient interface {
	Call(ctx context.Context, in *CallRequest, opts ...grpc.CallOption) (*CallResponse, error)
}

type cairoVMClient struct {
	cc grpc.ClientConnInterface
}

func NewCAIROVMClient(cc grpc.ClientConnInterface) CAIROVMClient {
	return &cairoVMClient{cc: cc}
}

func (c *cairoVMClient) Call(ctx context.Context, in *CallRequest, opts ...grpc.CallOption) (*CallResponse, error) {
	out := dynamicpb.NewMessage(callResponseDesc)
	if err := c.cc.Invoke(ctx, GRPCCallMethod, in.message(), out, opts...); err != nil {
		return nil, err
	}
	return callResponseFromMessage(out), nil
}
