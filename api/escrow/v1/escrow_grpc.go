package escrowv1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "escrow.v1.BookingEscrowService"

const (
	BookingEscrowService_CreateBooking_FullMethodName  = "/" + ServiceName + "/CreateBooking"
	BookingEscrowService_GetBooking_FullMethodName     = "/" + ServiceName + "/GetBooking"
	BookingEscrowService_ListBookings_FullMethodName   = "/" + ServiceName + "/ListBookings"
	BookingEscrowService_AcceptBooking_FullMethodName  = "/" + ServiceName + "/AcceptBooking"
	BookingEscrowService_MarkEscrowed_FullMethodName   = "/" + ServiceName + "/MarkEscrowed"
	BookingEscrowService_CancelBooking_FullMethodName  = "/" + ServiceName + "/CancelBooking"
	BookingEscrowService_ConfirmBooking_FullMethodName = "/" + ServiceName + "/ConfirmBooking"
	BookingEscrowService_OpenDispute_FullMethodName    = "/" + ServiceName + "/OpenDispute"
	BookingEscrowService_SubmitRating_FullMethodName   = "/" + ServiceName + "/SubmitRating"
	BookingEscrowService_ComputeFees_FullMethodName    = "/" + ServiceName + "/ComputeFees"
)

// BookingEscrowServiceServer is the server API for escrow.v1.BookingEscrowService.
type BookingEscrowServiceServer interface {
	CreateBooking(context.Context, *CreateBookingRequest) (*BookingResponse, error)
	GetBooking(context.Context, *GetBookingRequest) (*BookingResponse, error)
	ListBookings(context.Context, *ListBookingsRequest) (*ListBookingsResponse, error)
	AcceptBooking(context.Context, *AcceptBookingRequest) (*BookingResponse, error)
	MarkEscrowed(context.Context, *MarkEscrowedRequest) (*BookingResponse, error)
	CancelBooking(context.Context, *CancelBookingRequest) (*BookingResponse, error)
	ConfirmBooking(context.Context, *ConfirmBookingRequest) (*BookingResponse, error)
	OpenDispute(context.Context, *OpenDisputeRequest) (*BookingResponse, error)
	SubmitRating(context.Context, *SubmitRatingRequest) (*SubmitRatingResponse, error)
	ComputeFees(context.Context, *ComputeFeesRequest) (*ComputeFeesResponse, error)
}

// UnimplementedBookingEscrowServiceServer returns Unimplemented for every
// method. Embed it to stay forward compatible.
type UnimplementedBookingEscrowServiceServer struct{}

func (UnimplementedBookingEscrowServiceServer) CreateBooking(context.Context, *CreateBookingRequest) (*BookingResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method CreateBooking not implemented")
}
func (UnimplementedBookingEscrowServiceServer) GetBooking(context.Context, *GetBookingRequest) (*BookingResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetBooking not implemented")
}
func (UnimplementedBookingEscrowServiceServer) ListBookings(context.Context, *ListBookingsRequest) (*ListBookingsResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ListBookings not implemented")
}
func (UnimplementedBookingEscrowServiceServer) AcceptBooking(context.Context, *AcceptBookingRequest) (*BookingResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method AcceptBooking not implemented")
}
func (UnimplementedBookingEscrowServiceServer) MarkEscrowed(context.Context, *MarkEscrowedRequest) (*BookingResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method MarkEscrowed not implemented")
}
func (UnimplementedBookingEscrowServiceServer) CancelBooking(context.Context, *CancelBookingRequest) (*BookingResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method CancelBooking not implemented")
}
func (UnimplementedBookingEscrowServiceServer) ConfirmBooking(context.Context, *ConfirmBookingRequest) (*BookingResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ConfirmBooking not implemented")
}
func (UnimplementedBookingEscrowServiceServer) OpenDispute(context.Context, *OpenDisputeRequest) (*BookingResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method OpenDispute not implemented")
}
func (UnimplementedBookingEscrowServiceServer) SubmitRating(context.Context, *SubmitRatingRequest) (*SubmitRatingResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method SubmitRating not implemented")
}
func (UnimplementedBookingEscrowServiceServer) ComputeFees(context.Context, *ComputeFeesRequest) (*ComputeFeesResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ComputeFees not implemented")
}

// RegisterBookingEscrowServiceServer registers srv on s.
func RegisterBookingEscrowServiceServer(s grpc.ServiceRegistrar, srv BookingEscrowServiceServer) {
	s.RegisterService(&BookingEscrowService_ServiceDesc, srv)
}

func unary[Req, Resp any](name, fullMethod string, call func(BookingEscrowServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(BookingEscrowServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(BookingEscrowServiceServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// BookingEscrowService_ServiceDesc describes escrow.v1.BookingEscrowService.
var BookingEscrowService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*BookingEscrowServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("CreateBooking", BookingEscrowService_CreateBooking_FullMethodName, BookingEscrowServiceServer.CreateBooking),
		unary("GetBooking", BookingEscrowService_GetBooking_FullMethodName, BookingEscrowServiceServer.GetBooking),
		unary("ListBookings", BookingEscrowService_ListBookings_FullMethodName, BookingEscrowServiceServer.ListBookings),
		unary("AcceptBooking", BookingEscrowService_AcceptBooking_FullMethodName, BookingEscrowServiceServer.AcceptBooking),
		unary("MarkEscrowed", BookingEscrowService_MarkEscrowed_FullMethodName, BookingEscrowServiceServer.MarkEscrowed),
		unary("CancelBooking", BookingEscrowService_CancelBooking_FullMethodName, BookingEscrowServiceServer.CancelBooking),
		unary("ConfirmBooking", BookingEscrowService_ConfirmBooking_FullMethodName, BookingEscrowServiceServer.ConfirmBooking),
		unary("OpenDispute", BookingEscrowService_OpenDispute_FullMethodName, BookingEscrowServiceServer.OpenDispute),
		unary("SubmitRating", BookingEscrowService_SubmitRating_FullMethodName, BookingEscrowServiceServer.SubmitRating),
		unary("ComputeFees", BookingEscrowService_ComputeFees_FullMethodName, BookingEscrowServiceServer.ComputeFees),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "escrow/v1/escrow.go",
}

// BookingEscrowServiceClient is the client API for escrow.v1.BookingEscrowService.
type BookingEscrowServiceClient interface {
	CreateBooking(ctx context.Context, in *CreateBookingRequest, opts ...grpc.CallOption) (*BookingResponse, error)
	GetBooking(ctx context.Context, in *GetBookingRequest, opts ...grpc.CallOption) (*BookingResponse, error)
	ListBookings(ctx context.Context, in *ListBookingsRequest, opts ...grpc.CallOption) (*ListBookingsResponse, error)
	AcceptBooking(ctx context.Context, in *AcceptBookingRequest, opts ...grpc.CallOption) (*BookingResponse, error)
	MarkEscrowed(ctx context.Context, in *MarkEscrowedRequest, opts ...grpc.CallOption) (*BookingResponse, error)
	CancelBooking(ctx context.Context, in *CancelBookingRequest, opts ...grpc.CallOption) (*BookingResponse, error)
	ConfirmBooking(ctx context.Context, in *ConfirmBookingRequest, opts ...grpc.CallOption) (*BookingResponse, error)
	OpenDispute(ctx context.Context, in *OpenDisputeRequest, opts ...grpc.CallOption) (*BookingResponse, error)
	SubmitRating(ctx context.Context, in *SubmitRatingRequest, opts ...grpc.CallOption) (*SubmitRatingResponse, error)
	ComputeFees(ctx context.Context, in *ComputeFeesRequest, opts ...grpc.CallOption) (*ComputeFeesResponse, error)
}

type bookingEscrowServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewBookingEscrowServiceClient returns a client that always requests the
// JSON content-subtype.
func NewBookingEscrowServiceClient(cc grpc.ClientConnInterface) BookingEscrowServiceClient {
	return &bookingEscrowServiceClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	callOpts := append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, method, in, out, callOpts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *bookingEscrowServiceClient) CreateBooking(ctx context.Context, in *CreateBookingRequest, opts ...grpc.CallOption) (*BookingResponse, error) {
	return invoke[BookingResponse](ctx, c.cc, BookingEscrowService_CreateBooking_FullMethodName, in, opts)
}

func (c *bookingEscrowServiceClient) GetBooking(ctx context.Context, in *GetBookingRequest, opts ...grpc.CallOption) (*BookingResponse, error) {
	return invoke[BookingResponse](ctx, c.cc, BookingEscrowService_GetBooking_FullMethodName, in, opts)
}

func (c *bookingEscrowServiceClient) ListBookings(ctx context.Context, in *ListBookingsRequest, opts ...grpc.CallOption) (*ListBookingsResponse, error) {
	return invoke[ListBookingsResponse](ctx, c.cc, BookingEscrowService_ListBookings_FullMethodName, in, opts)
}

func (c *bookingEscrowServiceClient) AcceptBooking(ctx context.Context, in *AcceptBookingRequest, opts ...grpc.CallOption) (*BookingResponse, error) {
	return invoke[BookingResponse](ctx, c.cc, BookingEscrowService_AcceptBooking_FullMethodName, in, opts)
}

func (c *bookingEscrowServiceClient) MarkEscrowed(ctx context.Context, in *MarkEscrowedRequest, opts ...grpc.CallOption) (*BookingResponse, error) {
	return invoke[BookingResponse](ctx, c.cc, BookingEscrowService_MarkEscrowed_FullMethodName, in, opts)
}

func (c *bookingEscrowServiceClient) CancelBooking(ctx context.Context, in *CancelBookingRequest, opts ...grpc.CallOption) (*BookingResponse, error) {
	return invoke[BookingResponse](ctx, c.cc, BookingEscrowService_CancelBooking_FullMethodName, in, opts)
}

func (c *bookingEscrowServiceClient) ConfirmBooking(ctx context.Context, in *ConfirmBookingRequest, opts ...grpc.CallOption) (*BookingResponse, error) {
	return invoke[BookingResponse](ctx, c.cc, BookingEscrowService_ConfirmBooking_FullMethodName, in, opts)
}

func (c *bookingEscrowServiceClient) OpenDispute(ctx context.Context, in *OpenDisputeRequest, opts ...grpc.CallOption) (*BookingResponse, error) {
	return invoke[BookingResponse](ctx, c.cc, BookingEscrowService_OpenDispute_FullMethodName, in, opts)
}

func (c *bookingEscrowServiceClient) SubmitRating(ctx context.Context, in *SubmitRatingRequest, opts ...grpc.CallOption) (*SubmitRatingResponse, error) {
	return invoke[SubmitRatingResponse](ctx, c.cc, BookingEscrowService_SubmitRating_FullMethodName, in, opts)
}

func (c *bookingEscrowServiceClient) ComputeFees(ctx context.Context, in *ComputeFeesRequest, opts ...grpc.CallOption) (*ComputeFeesResponse, error) {
	return invoke[ComputeFeesResponse](ctx, c.cc, BookingEscrowService_ComputeFees_FullMethodName, in, opts)
}
