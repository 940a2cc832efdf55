package client

import (
	"fmt"

	"github.com/ValentinKolb/nkv/lib/tier"
	"github.com/ValentinKolb/nkv/rpc/common"
	"github.com/ValentinKolb/nkv/rpc/serializer"
	"github.com/ValentinKolb/nkv/rpc/transport"
	"github.com/op/go-logging"
)

var (
	Logger = logging.MustGetLogger("rpc")
)

// rpcClientAdapter stores all data needed for an implementation of an RPC client
type rpcClientAdapter struct {
	config     common.ClientConfig
	transport  transport.IRPCClientTransport
	serializer serializer.IRPCSerializer
}

// invokeRPCRequest is a helper function used by the RPC client to send requests
// It attaches the configured token, serializes the request, sends it through
// the transport and decodes the response
// Server-side errors are reconstructed with their original error code so
// callers can distinguish not-found, forbidden and unavailable conditions
func invokeRPCRequest(req *common.Message, adapter *rpcClientAdapter) (*common.Message, error) {
	// Attach the token
	req.Token = adapter.config.Token

	// Serialize the request
	reqBytes, err := adapter.serializer.Serialize(*req)
	if err != nil {
		return nil, err
	}

	// Send the request
	respBytes, err := adapter.transport.Send(reqBytes)
	if err != nil {
		return nil, err
	}

	// Deserialize the response
	resp := &common.Message{}
	err = adapter.serializer.Deserialize(respBytes, resp)
	if err != nil {
		return nil, fmt.Errorf("rpc client - error: %s", err)
	}

	// Check if the response is an error response
	if resp.MsgType == common.MsgTError || resp.Err != "" {
		return nil, tier.NewError(tier.RetCode(resp.Code), resp.Err)
	}

	// Check if the type of the response is the expected type
	if resp.MsgType != req.MsgType {
		return nil, fmt.Errorf("rpc client - unexpected message type: %s, expected %s", resp.MsgType, req.MsgType)
	}

	// Return the response
	return resp, nil
}
