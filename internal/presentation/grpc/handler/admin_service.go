package handler

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// AdminServiceName 管理サービスの完全修飾名
const AdminServiceName = "donation.admin.v1.EventLogService"

// 各メソッドの完全修飾名
const (
	MethodListEvents    = "/" + AdminServiceName + "/ListEvents"
	MethodListDonations = "/" + AdminServiceName + "/ListDonations"
	MethodGetDonation   = "/" + AdminServiceName + "/GetDonation"
)

// AdminServiceServer 管理サービスのサーバー側インターフェース
// メッセージはgoogle.protobuf.Structで表現する。
type AdminServiceServer interface {
	ListEvents(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ListDonations(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	GetDonation(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// RegisterAdminServiceServer サーバーに管理サービスを登録する
func RegisterAdminServiceServer(s grpc.ServiceRegistrar, srv AdminServiceServer) {
	s.RegisterService(&adminServiceDesc, srv)
}

var adminServiceDesc = grpc.ServiceDesc{
	ServiceName: AdminServiceName,
	HandlerType: (*AdminServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ListEvents", Handler: unaryHandler(MethodListEvents, AdminServiceServer.ListEvents)},
		{MethodName: "ListDonations", Handler: unaryHandler(MethodListDonations, AdminServiceServer.ListDonations)},
		{MethodName: "GetDonation", Handler: unaryHandler(MethodGetDonation, AdminServiceServer.GetDonation)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "donation/admin/v1/admin.proto",
}

type structMethod func(AdminServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, method structMethod) grpc.MethodHandler {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return method(srv.(AdminServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return method(srv.(AdminServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// AdminServiceClient 管理サービスのクライアント
type AdminServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewAdminServiceClient 新しいAdminServiceClientを作成
func NewAdminServiceClient(cc grpc.ClientConnInterface) *AdminServiceClient {
	return &AdminServiceClient{cc: cc}
}

// ListEvents イベントログを取得
func (c *AdminServiceClient) ListEvents(ctx context.Context, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodListEvents, req, opts...)
}

// ListDonations 寄付記録を取得
func (c *AdminServiceClient) ListDonations(ctx context.Context, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodListDonations, req, opts...)
}

// GetDonation 寄付記録を1件取得
func (c *AdminServiceClient) GetDonation(ctx context.Context, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodGetDonation, req, opts...)
}

func (c *AdminServiceClient) invoke(ctx context.Context, method string, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	if req == nil {
		req = &structpb.Struct{}
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
