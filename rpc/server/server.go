package server

import (
	"fmt"

	"github.com/ValentinKolb/nkv/lib/engine"
	"github.com/ValentinKolb/nkv/lib/tier"
	"github.com/ValentinKolb/nkv/rpc/common"
	"github.com/ValentinKolb/nkv/rpc/serializer"
	"github.com/ValentinKolb/nkv/rpc/transport"
	"github.com/VictoriaMetrics/metrics"
	"github.com/op/go-logging"
)

var Logger = logging.MustGetLogger("rpc")

// NewRPCServer creates a new RPC server
// It takes a config, transport and serializer as parameters
//
// Usage:
//
//	s := server.NewRPCServer(
//		*config,
//		http.NewHttpServerTransport(),
//		serializer.NewJSONSerializer(),
//	)
//
//	if err := s.Serve(); err != nil {
//		panic(err)
//	}
func NewRPCServer(
	config common.ServerConfig,
	transport transport.IRPCServerTransport,
	serializer serializer.IRPCSerializer,
) rpcServer {
	Logger.Infof("Created RPC Server")
	Logger.Infof(config.String())

	return rpcServer{
		config:     config,
		transport:  transport,
		serializer: serializer,
		adapter:    NewEngineServerAdapter(),
	}
}

type rpcServer struct {
	config     common.ServerConfig
	transport  transport.IRPCServerTransport
	serializer serializer.IRPCSerializer
	adapter    IRPCServerAdapter
	engine     *engine.Engine
}

func (s *rpcServer) registerTransportHandler() {
	s.transport.RegisterHandler(func(req []byte) []byte {
		respMsg := s.handleRequest(req)

		val, err := s.serializer.Serialize(*respMsg)
		if err != nil {
			// the fallback response contains no request-derived data and
			// always serializes
			respMsg = common.NewErrorResponse(tier.NewErrorf(
				tier.RetCInternalError, "failed to serialize response: %s", err,
			))
			val, _ = s.serializer.Serialize(*respMsg)
		}
		return val
	})
}

// handleRequest decodes, authenticates and dispatches one request. A panic
// in the adapter is contained to the request and surfaced as an internal
// error.
func (s *rpcServer) handleRequest(req []byte) (respMsg *common.Message) {
	defer func() {
		if r := recover(); r != nil {
			Logger.Errorf("panic while handling request: %v", r)
			respMsg = common.NewErrorResponse(tier.NewError(
				tier.RetCInternalError, "internal server error",
			))
		}
	}()

	var msg common.Message
	if err := s.serializer.Deserialize(req, &msg); err != nil {
		return common.NewErrorResponse(tier.NewErrorf(
			tier.RetCInternalError, "failed to deserialize request: %s", err,
		))
	}

	requestCounter(msg.MsgType).Inc()

	perms, err := s.engine.Resolver().Resolve(msg.Token)
	if err != nil {
		rejectedCounter.Inc()
		return common.NewErrorResponse(err)
	}

	return s.adapter.Handle(&msg, perms, s.engine)
}

// Serve starts the RPC server
// This function initializes the loggers and the engine and starts the
// transport layer
func (s *rpcServer) Serve() error {
	common.InitLoggers(s.config)

	eng, err := engine.New(s.config.ToEngineConfig())
	if err != nil {
		return fmt.Errorf("failed to create engine: %w", err)
	}
	eng.Start()
	s.engine = eng

	Logger.Infof("%s setup completed successfully", s.config.Name)

	s.registerTransportHandler()
	return s.transport.Listen(s.config)
}

// --------------------------------------------------------------------------
// Metrics
// --------------------------------------------------------------------------

var rejectedCounter = metrics.NewCounter(`nkv_requests_rejected_total`)

// requestCounter returns the per-operation request counter.
func requestCounter(t common.MessageType) *metrics.Counter {
	return metrics.GetOrCreateCounter(fmt.Sprintf(`nkv_requests_total{op=%q}`, t.String()))
}
