// Package booklog writes the line-oriented diagnostic log: book snapshots
// and own-trade records. The sink is best effort and append only; write
// failures are logged and swallowed, never propagated into event handling.
package booklog

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/quantfield/hft-agent/pkg/book"
	"github.com/quantfield/hft-agent/pkg/exchange"
)

type Sink struct {
	w      io.Writer
	logger *zap.Logger
}

// New opens a rotating append sink at path.
func New(path string, logger *zap.Logger) *Sink {
	return NewWithWriter(&lumberjack.Logger{
		Filename:   path,
		MaxSize:    100, // megabytes
		MaxBackups: 5,
	}, logger)
}

// NewWithWriter builds a sink over an arbitrary writer; tests use this to
// capture output.
func NewWithWriter(w io.Writer, logger *zap.Logger) *Sink {
	return &Sink{w: w, logger: logger}
}

// LogBook appends one line per resting level: offers from least to most
// aggressive, then bids from most to least aggressive.
func (s *Sink) LogBook(ts int64, b *book.Book) {
	if s == nil {
		return
	}

	var sb strings.Builder

	offers := b.Entries(exchange.SELL)
	for i := len(offers) - 1; i >= 0; i-- {
		writeBookLine(&sb, ts, "OFFER", offers[i])
	}
	for _, e := range b.Entries(exchange.BUY) {
		writeBookLine(&sb, ts, "BID", e)
	}

	s.write(sb.String())
}

func writeBookLine(sb *strings.Builder, ts int64, label string, e book.Entry) {
	sb.WriteString("ORDER BOOK,")
	sb.WriteString(strconv.FormatInt(ts, 10))
	sb.WriteByte(',')
	sb.WriteString(label)
	sb.WriteByte(',')
	sb.WriteString(strconv.FormatFloat(e.Price, 'g', -1, 64))
	sb.WriteByte(',')
	sb.WriteString(strconv.FormatInt(e.Qty, 10))
	sb.WriteByte(',')
	sb.WriteString(strconv.FormatInt(e.OrderID, 10))
	sb.WriteByte('\n')
}

// LogTrade appends one trade line. The side flag is 1 for an aggressing
// buy, 0 for an aggressing sell.
func (s *Sink) LogTrade(ts int64, update exchange.TradeUpdate) {
	if s == nil {
		return
	}

	flag := 0
	if update.Side == exchange.BUY {
		flag = 1
	}
	s.write(fmt.Sprintf("TRADE,%d,%s,%g,%d,%d,%d,%d\n",
		ts, update.Instrument, update.Price, update.Qty, flag,
		update.RestingOrderID, update.AggressingOrderID))
}

func (s *Sink) write(line string) {
	if _, err := io.WriteString(s.w, line); err != nil {
		s.logger.Warn("diagnostic sink write failed", zap.Error(err))
	}
}

// Close flushes the underlying writer when it supports closing.
func (s *Sink) Close() error {
	if c, ok := s.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
