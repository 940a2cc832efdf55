package server

import (
	"github.com/ValentinKolb/nkv/lib/auth"
	"github.com/ValentinKolb/nkv/lib/engine"
	"github.com/ValentinKolb/nkv/lib/tier"
	"github.com/ValentinKolb/nkv/rpc/common"
)

func NewEngineServerAdapter() IRPCServerAdapter {
	return &engineServerAdapterImpl{}
}

type engineServerAdapterImpl struct{}

func (adapter *engineServerAdapterImpl) Handle(req *common.Message, perms auth.PermissionSet, eng *engine.Engine) *common.Message {
	// Check for nil engine
	if eng == nil {
		return common.NewErrorResponse(tier.NewError(tier.RetCInternalError, "handler: engine is nil"))
	}

	// Handle different message types
	switch req.MsgType {
	case common.MsgTWrite:
		entry, err := eng.Write(perms, req.Namespace, req.Key, req.Data, req.TTLSeconds, req.Persist, req.Buffered)
		return common.NewWriteResponse(entry, err)
	case common.MsgTGet:
		entry, ok, err := eng.Read(perms, req.Namespace, req.Key, req.Persist)
		return common.NewGetResponse(entry, ok, err)
	case common.MsgTDelete:
		removed, err := eng.Delete(perms, req.Namespace, req.Key, req.Persist)
		return common.NewDeleteResponse(removed, err)
	case common.MsgTListRecency:
		cursor, err := recencyCursor(req.Cursor)
		if err != nil {
			return common.NewListResponse(common.MsgTListRecency, tier.Page{}, err)
		}
		page, err := eng.ListByRecency(perms, req.Namespace, cursor, req.PageSize, req.Persist)
		return common.NewListResponse(common.MsgTListRecency, page, err)
	case common.MsgTListSorted:
		page, err := eng.ListBySorted(perms, req.Namespace, tier.SortQuery{
			Field:     req.Field,
			Direction: tier.Direction(req.Direction),
			Cursor:    req.Cursor,
			Default:   req.Default,
			PageSize:  req.PageSize,
		}, req.Persist)
		return common.NewListResponse(common.MsgTListSorted, page, err)
	case common.MsgTRank:
		rank, err := eng.Rank(perms, req.Namespace, req.Key, tier.RankQuery{
			Field:     req.Field,
			Direction: tier.Direction(req.Direction),
			Default:   req.Default,
		}, req.Persist)
		return common.NewRankResponse(rank, err)
	case common.MsgTBatchWrite:
		err := eng.BatchWrite(perms, req.Batch, req.Persist, req.Buffered)
		return common.NewBatchWriteResponse(err)
	default:
		return common.NewErrorResponse(tier.NewErrorf(
			tier.RetCInvalidOperation,
			"unsupported message type: %s", req.MsgType,
		))
	}
}

// recencyCursor converts the wire cursor to a write cursor. The number
// arrives as float64 or int64 depending on the codec.
func recencyCursor(v any) (int64, error) {
	switch n := v.(type) {
	case nil:
		return 0, nil
	case int64:
		return n, nil
	case float64:
		return int64(n), nil
	case int:
		return int64(n), nil
	default:
		return 0, tier.NewErrorf(tier.RetCInvalidOperation, "invalid recency cursor type %T", v)
	}
}
