package server

import (
	"github.com/ValentinKolb/nkv/lib/auth"
	"github.com/ValentinKolb/nkv/lib/engine"
	"github.com/ValentinKolb/nkv/rpc/common"
)

// IRPCServerAdapter is the interface for all RPC server adapters
// It is responsible for handling requests and responses
type IRPCServerAdapter interface {
	// Handle handles a request and returns a response
	// It takes a Message, the resolved permissions and the engine as parameters.
	// It returns a Message as a response
	// If an error occurs, it should be set in the response
	Handle(req *common.Message, perms auth.PermissionSet, eng *engine.Engine) (resp *common.Message)
}
