package grpc

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// requestIDKey is the metadata key a caller may use to correlate calls.
const requestIDKey = "x-request-id"

func (s *HealthServer) logCalls(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)

	args := []any{
		"method", info.FullMethod,
		"code", status.Code(err).String(),
		"duration", time.Since(start),
	}
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get(requestIDKey); len(values) > 0 {
			args = append(args, "request_id", values[0])
		}
	}

	switch status.Code(err) {
	case codes.OK, codes.NotFound, codes.Canceled:
		s.logger.Debug(ctx, "grpc call", args...)
	default:
		s.logger.Warn(ctx, "grpc call failed", args...)
	}
	return resp, err
}
