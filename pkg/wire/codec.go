package wire

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrDecode is wrapped by every decode and framing failure.
var ErrDecode = errors.New("wire: decode")

// TimeLayout is the trade timestamp format, always UTC.
const TimeLayout = "20060102-15:04:05"

// Encode renders m as a payload. It never fails; a Reason containing a
// delimiter is sanitized.
func Encode(m Message) []byte {
	var sb strings.Builder
	sb.WriteByte(byte(m.Type))
	for _, f := range m.Fields {
		sb.WriteByte('|')
		sb.WriteString(strconv.Itoa(int(f.Tag())))
		sb.WriteByte('=')
		sb.WriteString(encodeValue(f))
	}
	return []byte(sb.String())
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func encodeValue(f Field) string {
	switch v := f.(type) {
	case OrderID:
		return strconv.FormatUint(uint64(v), 10)
	case SideField:
		return string(rune(v))
	case Quantity:
		return strconv.FormatUint(uint64(v), 10)
	case Price:
		return formatFloat(float64(v))
	case StatusField:
		return string(rune(v))
	case VolumeAtLimit:
		return formatFloat(float64(v))
	case Trades:
		parts := make([]string, len(v))
		for i, t := range v {
			parts[i] = strconv.FormatUint(t.Quantity, 10) + "@" + formatFloat(t.Price) + "@" + t.Timestamp.UTC().Format(TimeLayout)
		}
		return strings.Join(parts, ",")
	case BookField:
		return encodeLevels(v.Bids) + ":" + encodeLevels(v.Asks)
	case MarketPrice:
		return strconv.FormatBool(bool(v))
	case MarketTrades:
		return strconv.FormatBool(bool(v))
	case MarketBook:
		return strconv.FormatBool(bool(v))
	case Reason:
		return sanitize(string(v))
	}
	return ""
}

func encodeLevels(levels []Level) string {
	parts := make([]string, len(levels))
	for i, l := range levels {
		parts[i] = strconv.FormatUint(l.Quantity, 10) + "@" + formatFloat(l.Price)
	}
	return strings.Join(parts, ",")
}

func decodeErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrDecode, fmt.Sprintf(format, args...))
}

// Decode parses a payload. Any malformed field fails the whole message.
func Decode(payload []byte) (Message, error) {
	parts := strings.Split(string(payload), "|")
	if len(parts[0]) != 1 || !MsgType(parts[0][0]).Valid() {
		return Message{}, decodeErr("unknown message type %q", parts[0])
	}

	m := Message{Type: MsgType(parts[0][0])}
	for _, raw := range parts[1:] {
		if strings.Count(raw, "=") != 1 {
			return Message{}, decodeErr("field %q: want exactly one '='", raw)
		}
		key, val, _ := strings.Cut(raw, "=")
		// tags are canonical decimal: no sign, no leading zeros
		tag, err := strconv.Atoi(key)
		if err != nil || strconv.Itoa(tag) != key {
			return Message{}, decodeErr("field %q: bad tag", raw)
		}
		f, err := decodeValue(Tag(tag), val)
		if err != nil {
			return Message{}, err
		}
		m.Fields = append(m.Fields, f)
	}
	return m, nil
}

func decodeValue(tag Tag, val string) (Field, error) {
	switch tag {
	case TagOrderID:
		n, err := parseUint(tag, val)
		return OrderID(n), err
	case TagSide:
		if val != string(rune(Buy)) && val != string(rune(Sell)) {
			return nil, decodeErr("tag %d: side %q", tag, val)
		}
		return SideField(val[0]), nil
	case TagQuantity:
		n, err := parseUint(tag, val)
		return Quantity(n), err
	case TagPrice:
		f, err := parseFloat(tag, val)
		return Price(f), err
	case TagStatus:
		switch Status(firstByte(val)) {
		case StatusNew, StatusFilled, StatusRejected:
			if len(val) == 1 {
				return StatusField(val[0]), nil
			}
		}
		return nil, decodeErr("tag %d: status %q", tag, val)
	case TagVolumeAtLimit:
		f, err := parseFloat(tag, val)
		return VolumeAtLimit(f), err
	case TagTrades:
		return decodeTrades(val)
	case TagBook:
		return decodeBook(val)
	case TagMarketPrice:
		b, err := parseBool(tag, val)
		return MarketPrice(b), err
	case TagMarketTrades:
		b, err := parseBool(tag, val)
		return MarketTrades(b), err
	case TagMarketBook:
		b, err := parseBool(tag, val)
		return MarketBook(b), err
	case TagReason:
		return Reason(val), nil
	}
	return nil, decodeErr("unknown tag %d", tag)
}

func firstByte(s string) byte {
	if s == "" {
		return 0
	}
	return s[0]
}

func parseUint(tag Tag, val string) (uint64, error) {
	n, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		return 0, decodeErr("tag %d: %q is not an unsigned integer", tag, val)
	}
	return n, nil
}

func parseFloat(tag Tag, val string) (float64, error) {
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, decodeErr("tag %d: %q is not a number", tag, val)
	}
	return f, nil
}

// parseBool accepts only the two literals Encode writes.
func parseBool(tag Tag, val string) (bool, error) {
	switch val {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	return false, decodeErr("tag %d: %q is not a bool", tag, val)
}

func decodeTrades(val string) (Field, error) {
	if val == "" {
		return Trades(nil), nil
	}
	items := strings.Split(val, ",")
	if len(items) > MaxEntries {
		return nil, decodeErr("tag %d: %d trades exceeds %d", TagTrades, len(items), MaxEntries)
	}
	out := make(Trades, 0, len(items))
	for _, item := range items {
		p := strings.Split(item, "@")
		if len(p) != 3 {
			return nil, decodeErr("tag %d: trade %q", TagTrades, item)
		}
		qty, err := parseUint(TagTrades, p[0])
		if err != nil {
			return nil, err
		}
		price, err := parseFloat(TagTrades, p[1])
		if err != nil {
			return nil, err
		}
		ts, err := time.ParseInLocation(TimeLayout, p[2], time.UTC)
		if err != nil {
			return nil, decodeErr("tag %d: timestamp %q", TagTrades, p[2])
		}
		out = append(out, Trade{Quantity: qty, Price: price, Timestamp: ts})
	}
	return out, nil
}

func decodeBook(val string) (Field, error) {
	bidsRaw, asksRaw, ok := strings.Cut(val, ":")
	if !ok || strings.Contains(asksRaw, ":") {
		return nil, decodeErr("tag %d: want bids:asks", TagBook)
	}
	bids, err := decodeLevels(bidsRaw)
	if err != nil {
		return nil, err
	}
	asks, err := decodeLevels(asksRaw)
	if err != nil {
		return nil, err
	}
	return BookField{Bids: bids, Asks: asks}, nil
}

func decodeLevels(val string) ([]Level, error) {
	if val == "" {
		return nil, nil
	}
	items := strings.Split(val, ",")
	if len(items) > MaxEntries {
		return nil, decodeErr("tag %d: %d levels exceeds %d", TagBook, len(items), MaxEntries)
	}
	out := make([]Level, 0, len(items))
	for _, item := range items {
		qtyRaw, priceRaw, ok := strings.Cut(item, "@")
		if !ok {
			return nil, decodeErr("tag %d: level %q", TagBook, item)
		}
		qty, err := parseUint(TagBook, qtyRaw)
		if err != nil {
			return nil, err
		}
		price, err := parseFloat(TagBook, priceRaw)
		if err != nil {
			return nil, err
		}
		out = append(out, Level{Quantity: qty, Price: price})
	}
	return out, nil
}
