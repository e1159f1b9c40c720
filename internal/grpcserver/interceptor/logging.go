package interceptor

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/status"

	"github.com/patric-chuzhbe/linkfy/internal/logger"
)

// UnaryLoggingInterceptor logs every unary call with its method, duration and status.
// Methods listed in quiet are logged at debug level, which keeps frequent
// health probes out of the info log.
func UnaryLoggingInterceptor(quiet ...string) grpc.UnaryServerInterceptor {
	quietMethods := make(map[string]struct{}, len(quiet))
	for _, m := range quiet {
		quietMethods[m] = struct{}{}
	}

	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (resp interface{}, err error) {
		start := time.Now()

		resp, err = handler(ctx, req)

		st, _ := status.FromError(err)
		log := logger.Log.Infow
		if _, ok := quietMethods[info.FullMethod]; ok {
			log = logger.Log.Debugw
		}
		log(
			"gRPC request",
			"method", info.FullMethod,
			"duration", time.Since(start),
			"code", st.Code().String(),
			"message", st.Message(),
		)

		return resp, err
	}
}
