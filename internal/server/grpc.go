package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/worldcheck-sorter/internal/common"
	"github.com/joseph-ayodele/worldcheck-sorter/internal/entity"
)

// BatchServiceName is the fully qualified gRPC service name.
const BatchServiceName = "worldcheck.v1.BatchService"

// BatchServiceServer carries requests and responses as google.protobuf.Struct, so no
// generated stubs are needed.
type BatchServiceServer interface {
	SubmitBatch(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	GetBatch(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// RegisterBatchServiceServer registers srv on s.
func RegisterBatchServiceServer(s grpc.ServiceRegistrar, srv BatchServiceServer) {
	s.RegisterService(&batchServiceDesc, srv)
}

var batchServiceDesc = grpc.ServiceDesc{
	ServiceName: BatchServiceName,
	HandlerType: (*BatchServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "SubmitBatch", Handler: submitBatchHandler},
		{MethodName: "GetBatch", Handler: getBatchHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "worldcheck/v1/batch.proto",
}

func submitBatchHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(BatchServiceServer).SubmitBatch(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + BatchServiceName + "/SubmitBatch"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(BatchServiceServer).SubmitBatch(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func getBatchHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(BatchServiceServer).GetBatch(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + BatchServiceName + "/GetBatch"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(BatchServiceServer).GetBatch(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

type BatchServer struct {
	svc    BatchService
	logger *slog.Logger
}

func NewBatchServer(svc BatchService, logger *slog.Logger) *BatchServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &BatchServer{svc: svc, logger: logger}
}

// SubmitBatch accepts {source_dir?, files?, rename?, move?} and returns the queued job.
func (s *BatchServer) SubmitBatch(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	raw, err := json.Marshal(req.AsMap())
	if err != nil {
		return nil, common.InvalidArgumentErrorf("request: %v", err)
	}
	job, err := s.svc.SubmitJSON(ctx, raw)
	if err != nil {
		s.logger.Error("grpc.submit.failed", "error", err)
		return nil, common.ToStatus(err)
	}
	return jobStruct(job)
}

// GetBatch accepts {id} and returns the job's status.
func (s *BatchServer) GetBatch(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	raw := strings.TrimSpace(req.GetFields()["id"].GetStringValue())
	v := common.NewValidator().Field("id", raw, common.Required, common.UUID)
	if err := common.ValidateAndReturnError(v); err != nil {
		return nil, err
	}
	job, err := s.svc.Get(ctx, uuid.MustParse(raw))
	if err != nil {
		return nil, common.ToStatus(err)
	}
	return jobStruct(job)
}

func jobStruct(job *entity.BatchJob) (*structpb.Struct, error) {
	out, err := structpb.NewStruct(jobView(job))
	if err != nil {
		return nil, common.InternalErrorf("encode batch %s: %v", job.ID, err)
	}
	return out, nil
}
