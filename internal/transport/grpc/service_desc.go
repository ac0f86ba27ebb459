package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// Requests and responses travel as google.protobuf.Struct so clients only need the well-known
// types. Field names are listed on the request parsers in projects_server.go.
const (
	ProjectsServiceName       = "atelier.v1.ProjectsService"
	PlanProjectFullMethodName = "/" + ProjectsServiceName + "/PlanProject"
	BookProjectFullMethodName = "/" + ProjectsServiceName + "/BookProject"
)

type ProjectsServiceServer interface {
	PlanProject(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	BookProject(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

var ProjectsServiceDesc = grpc.ServiceDesc{
	ServiceName: ProjectsServiceName,
	HandlerType: (*ProjectsServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "PlanProject", Handler: planProjectHandler},
		{MethodName: "BookProject", Handler: bookProjectHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "atelier/v1/projects.proto",
}

func RegisterProjectsServiceServer(s grpc.ServiceRegistrar, srv ProjectsServiceServer) {
	s.RegisterService(&ProjectsServiceDesc, srv)
}

func planProjectHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ProjectsServiceServer).PlanProject(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: PlanProjectFullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ProjectsServiceServer).PlanProject(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func bookProjectHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ProjectsServiceServer).BookProject(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: BookProjectFullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ProjectsServiceServer).BookProject(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

type ProjectsServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewProjectsServiceClient(cc grpc.ClientConnInterface) *ProjectsServiceClient {
	return &ProjectsServiceClient{cc: cc}
}

func (c *ProjectsServiceClient) PlanProject(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, PlanProjectFullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ProjectsServiceClient) BookProject(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, BookProjectFullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
