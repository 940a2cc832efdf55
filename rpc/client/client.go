package client

import (
	"github.com/ValentinKolb/nkv/lib/engine"
	"github.com/ValentinKolb/nkv/lib/tier"
	"github.com/ValentinKolb/nkv/rpc/common"
	"github.com/ValentinKolb/nkv/rpc/serializer"
	"github.com/ValentinKolb/nkv/rpc/transport"
)

// INamespaceClient is the client-side view of the store. Every call sends
// one request over the configured transport; persist selects the durable
// tier server-side.
type INamespaceClient interface {
	// Write stores an entry and returns its write cursor. With buffered
	// set (durable tier only) the write goes through the server's
	// write-behind batcher and the returned cursor is zero.
	Write(ns, key string, data map[string]any, ttlSeconds int64, persist, buffered bool) (int64, error)
	// Get reads an entry; the boolean is false when it does not exist
	Get(ns, key string, persist bool) (map[string]any, bool, error)
	// Delete removes an entry and reports whether it existed
	Delete(ns, key string, persist bool) (bool, error)
	// ListByRecency pages a namespace from newest to oldest write
	ListByRecency(ns string, cursor int64, pageSize int, persist bool) (*tier.Page, error)
	// ListBySorted pages a namespace ordered by a payload field
	ListBySorted(ns string, q tier.SortQuery, persist bool) (*tier.Page, error)
	// Rank returns the 1-based position of an entry ordered by a field
	Rank(ns, key string, q tier.RankQuery, persist bool) (int64, error)
	// BatchWrite applies multiple writes, possibly across namespaces
	BatchWrite(items []engine.BatchItem, persist, buffered bool) error
	// Close closes the underlying transport
	Close() error
}

// NewNamespaceClient creates a new RPC client
// The function takes a config, a transport and a serializer as parameters
// It returns an INamespaceClient and an error
func NewNamespaceClient(
	config common.ClientConfig,
	transport transport.IRPCClientTransport,
	serializer serializer.IRPCSerializer,
) (INamespaceClient, error) {

	// Connect the transport
	err := transport.Connect(config)
	if err != nil {
		return nil, err
	}

	// Create a new RPC client
	c := namespaceClient{
		rpcClientAdapter{
			config:     config,
			transport:  transport,
			serializer: serializer,
		},
	}

	// Return the RPC client
	return &c, nil
}

type namespaceClient struct {
	rpcClientAdapter
}

// --------------------------------------------------------------------------
// Interface Methods (docu see INamespaceClient)
// --------------------------------------------------------------------------

func (c *namespaceClient) Write(ns, key string, data map[string]any, ttlSeconds int64, persist, buffered bool) (int64, error) {
	req := common.NewWriteRequest(ns, key, data, ttlSeconds, persist, buffered)
	resp, err := invokeRPCRequest(req, &c.rpcClientAdapter)
	if err != nil {
		return 0, err
	}
	return resp.WriteCursor, nil
}

func (c *namespaceClient) Get(ns, key string, persist bool) (map[string]any, bool, error) {
	req := common.NewGetRequest(ns, key, persist)
	resp, err := invokeRPCRequest(req, &c.rpcClientAdapter)
	if err != nil {
		return nil, false, err
	}
	return resp.Data, resp.Ok, nil
}

func (c *namespaceClient) Delete(ns, key string, persist bool) (bool, error) {
	req := common.NewDeleteRequest(ns, key, persist)
	resp, err := invokeRPCRequest(req, &c.rpcClientAdapter)
	if err != nil {
		return false, err
	}
	return resp.Ok, nil
}

func (c *namespaceClient) ListByRecency(ns string, cursor int64, pageSize int, persist bool) (*tier.Page, error) {
	req := common.NewListRecencyRequest(ns, cursor, pageSize, persist)
	resp, err := invokeRPCRequest(req, &c.rpcClientAdapter)
	if err != nil {
		return nil, err
	}
	return resp.Page, nil
}

func (c *namespaceClient) ListBySorted(ns string, q tier.SortQuery, persist bool) (*tier.Page, error) {
	req := common.NewListSortedRequest(ns, q, persist)
	resp, err := invokeRPCRequest(req, &c.rpcClientAdapter)
	if err != nil {
		return nil, err
	}
	return resp.Page, nil
}

func (c *namespaceClient) Rank(ns, key string, q tier.RankQuery, persist bool) (int64, error) {
	req := common.NewRankRequest(ns, key, q, persist)
	resp, err := invokeRPCRequest(req, &c.rpcClientAdapter)
	if err != nil {
		return 0, err
	}
	return resp.Rank, nil
}

func (c *namespaceClient) BatchWrite(items []engine.BatchItem, persist, buffered bool) error {
	req := common.NewBatchWriteRequest(items, persist, buffered)
	_, err := invokeRPCRequest(req, &c.rpcClientAdapter)
	return err
}

func (c *namespaceClient) Close() error {
	return c.transport.Close()
}
