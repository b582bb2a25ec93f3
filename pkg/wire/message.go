// Package wire implements the venue's tag-value protocol: a one-letter
// message type followed by "|tag=value" fields, carried in frames with a
// 4-byte big-endian length prefix.
//
// The package is stateless and knows nothing about the engine.
package wire

import (
	"strings"
	"time"
)

type MsgType byte

const (
	NewOrder            MsgType = 'N'
	ExecutionReport     MsgType = 'E'
	OrderReplaceRequest MsgType = 'O'
	OrderCancelRequest  MsgType = 'C'
	OrderStatusRequest  MsgType = 'S'
	MarketDataRequest   MsgType = 'M'
	MarketData          MsgType = 'D'
	Reject              MsgType = 'R'
)

func (t MsgType) Valid() bool {
	switch t {
	case NewOrder, ExecutionReport, OrderReplaceRequest, OrderCancelRequest,
		OrderStatusRequest, MarketDataRequest, MarketData, Reject:
		return true
	}
	return false
}

func (t MsgType) String() string {
	switch t {
	case NewOrder:
		return "NewOrder"
	case ExecutionReport:
		return "ExecutionReport"
	case OrderReplaceRequest:
		return "OrderReplaceRequest"
	case OrderCancelRequest:
		return "OrderCancelRequest"
	case OrderStatusRequest:
		return "OrderStatusRequest"
	case MarketDataRequest:
		return "MarketDataRequest"
	case MarketData:
		return "MarketData"
	case Reject:
		return "Reject"
	default:
		return "Unknown"
	}
}

// Tag numbers of the field registry.
type Tag int

const (
	TagOrderID       Tag = 1
	TagSide          Tag = 2
	TagQuantity      Tag = 3
	TagPrice         Tag = 4
	TagStatus        Tag = 5
	TagVolumeAtLimit Tag = 6
	TagTrades        Tag = 7
	TagBook          Tag = 8
	TagMarketPrice   Tag = 9
	TagMarketTrades  Tag = 10
	TagMarketBook    Tag = 11
	TagReason        Tag = 12
)

// MaxEntries bounds the trade list and each side of a book snapshot.
const MaxEntries = 10

type Side byte

const (
	Buy  Side = 'B'
	Sell Side = 'S'
)

type Status byte

const (
	StatusNew      Status = 'N'
	StatusFilled   Status = 'F'
	StatusRejected Status = 'R'
)

// Trade is one entry of a trade list. Timestamps travel with second
// precision in UTC.
type Trade struct {
	Quantity  uint64
	Price     float64
	Timestamp time.Time
}

type Level struct {
	Quantity uint64
	Price    float64
}

type Book struct {
	Bids []Level
	Asks []Level
}

// Field is one tagged value. The concrete types below are the only
// implementations.
type Field interface {
	Tag() Tag
}

type (
	OrderID       uint64
	SideField     Side
	Quantity      uint64
	Price         float64
	StatusField   Status
	VolumeAtLimit float64
	Trades        []Trade
	BookField     Book
	MarketPrice   bool
	MarketTrades  bool
	MarketBook    bool
	Reason        string
)

func (OrderID) Tag() Tag       { return TagOrderID }
func (SideField) Tag() Tag     { return TagSide }
func (Quantity) Tag() Tag      { return TagQuantity }
func (Price) Tag() Tag         { return TagPrice }
func (StatusField) Tag() Tag   { return TagStatus }
func (VolumeAtLimit) Tag() Tag { return TagVolumeAtLimit }
func (Trades) Tag() Tag        { return TagTrades }
func (BookField) Tag() Tag     { return TagBook }
func (MarketPrice) Tag() Tag   { return TagMarketPrice }
func (MarketTrades) Tag() Tag  { return TagMarketTrades }
func (MarketBook) Tag() Tag    { return TagMarketBook }
func (Reason) Tag() Tag        { return TagReason }

// Message is a type code plus fields in wire order.
type Message struct {
	Type   MsgType
	Fields []Field
}

// Lookup returns the first field of type T.
func Lookup[T Field](m Message) (T, bool) {
	for _, f := range m.Fields {
		if v, ok := f.(T); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

func NewOrderMsg(side Side, qty uint64, price float64) Message {
	return Message{Type: NewOrder, Fields: []Field{SideField(side), Quantity(qty), Price(price)}}
}

func AmendMsg(id, qty uint64, price float64) Message {
	return Message{Type: OrderReplaceRequest, Fields: []Field{OrderID(id), Quantity(qty), Price(price)}}
}

func CancelMsg(id uint64) Message {
	return Message{Type: OrderCancelRequest, Fields: []Field{OrderID(id)}}
}

func StatusMsg(id uint64) Message {
	return Message{Type: OrderStatusRequest, Fields: []Field{OrderID(id)}}
}

func ExecReport(id uint64) Message {
	return Message{Type: ExecutionReport, Fields: []Field{OrderID(id)}}
}

func ExecStatus(id uint64, st Status) Message {
	return Message{Type: ExecutionReport, Fields: []Field{OrderID(id), StatusField(st)}}
}

// RejectMsg builds a Reject whose reason is safe to put on the wire.
func RejectMsg(reason string) Message {
	return Message{Type: Reject, Fields: []Field{Reason(sanitize(reason))}}
}

var reasonReplacer = strings.NewReplacer("|", "/", "=", ":")

func sanitize(s string) string {
	return reasonReplacer.Replace(s)
}
