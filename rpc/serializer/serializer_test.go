package serializer

import (
	"reflect"
	"testing"

	"github.com/ValentinKolb/nkv/lib/engine"
	"github.com/ValentinKolb/nkv/lib/tier"
	"github.com/ValentinKolb/nkv/rpc/common"
)

// testSerializers is a map of serializer name to factory function
var testSerializers = map[string]func() IRPCSerializer{
	"JSON": NewJSONSerializer,
	"GOB":  NewGOBSerializer,
}

// testMessages creates a set of test messages with different fields filled.
// Interface-typed fields hold float64/string values only, since json decodes
// all numbers to float64 and the codecs must round-trip identically.
func testMessages() []common.Message {
	return []common.Message{
		// Basic message with just a type
		{MsgType: common.MsgTSuccess},

		// Write request
		{
			MsgType:    common.MsgTWrite,
			Token:      "test-token",
			Namespace:  "test-ns",
			Key:        "test-key",
			Data:       map[string]any{"score": float64(42), "name": "alice"},
			TTLSeconds: 60,
			Persist:    true,
			Buffered:   true,
		},

		// Get response
		{
			MsgType:     common.MsgTGet,
			Key:         "test-key",
			Data:        map[string]any{"score": float64(42)},
			WriteCursor: 1700000000000,
			Ok:          true,
		},

		// Sorted listing request with cursor continuation
		{
			MsgType:   common.MsgTListSorted,
			Token:     "test-token",
			Namespace: "test-ns",
			Field:     "score",
			Direction: "desc",
			Cursor:    float64(30),
			Default:   float64(0),
			PageSize:  10,
		},

		// Listing response with a full page
		{
			MsgType: common.MsgTListRecency,
			Page: &tier.Page{
				Items: []tier.Item{
					{Key: "a", Data: map[string]any{"v": float64(1)}},
					{Key: "b", Data: map[string]any{"v": float64(2)}},
				},
				PageSize:   2,
				TotalItems: 5,
				NextCursor: float64(1700000000000),
				HasMore:    true,
				Tier:       tier.Memory,
			},
		},

		// Rank response
		{
			MsgType: common.MsgTRank,
			Rank:    3,
		},

		// Batch write request
		{
			MsgType: common.MsgTBatchWrite,
			Token:   "test-token",
			Batch: []engine.BatchItem{
				{Namespace: "a", Key: "k1", Payload: map[string]any{"v": float64(1)}},
				{Namespace: "b", Key: "k2", Payload: map[string]any{"v": float64(2)}, TTLSeconds: 30},
			},
			Persist: true,
		},

		// Error response
		{
			MsgType: common.MsgTError,
			Code:    uint64(tier.RetCForbidden),
			Err:     "test error message",
		},
	}
}

// TestSerializerRoundTrip tests that messages can be serialized and deserialized correctly
func TestSerializerRoundTrip(t *testing.T) {
	messages := testMessages()

	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			serializer := factory()

			for i, msg := range messages {
				// Serialize
				data, err := serializer.Serialize(msg)
				if err != nil {
					t.Errorf("Failed to serialize message %d: %v", i, err)
					continue
				}

				// Deserialize
				var result common.Message
				err = serializer.Deserialize(data, &result)
				if err != nil {
					t.Errorf("Failed to deserialize message %d: %v", i, err)
					continue
				}

				// Compare
				if !reflect.DeepEqual(msg, result) {
					t.Errorf("Message %d doesn't match after round trip:\nOriginal: %+v\nResult: %+v",
						i, msg, result)
				}
			}
		})
	}
}

// TestMessageTypes tests each message type with each serializer
func TestMessageTypes(t *testing.T) {
	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			serializer := factory()

			// Test each message type (don't test MsgTUnknown since this should raise an error)
			for msgType := common.MsgTSuccess; msgType <= common.MsgTBatchWrite; msgType++ {
				msg := common.Message{MsgType: msgType}

				// Serialize
				data, err := serializer.Serialize(msg)
				if err != nil {
					t.Errorf("Failed to serialize message type %s: %v", msgType.String(), err)
					continue
				}

				// Deserialize
				var result common.Message
				err = serializer.Deserialize(data, &result)
				if err != nil {
					t.Errorf("Failed to deserialize message type %s: %v", msgType.String(), err)
					continue
				}

				// Check type
				if result.MsgType != msgType {
					t.Errorf("Message type doesn't match after round trip: Expected %s, got %s",
						msgType.String(), result.MsgType.String())
				}
			}
		})
	}
}
