// Replay-driven agent run: feeds a recorded venue event stream through the
// dispatcher with a stub transport that assigns order ids locally. Live
// transport stays outside this repo; this binary exists to exercise the
// agent against captured sessions.
package main

import (
	"bufio"
	"flag"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	appconfig "github.com/quantfield/hft-agent/config"
	"github.com/quantfield/hft-agent/pkg/agent"
	"github.com/quantfield/hft-agent/pkg/booklog"
	"github.com/quantfield/hft-agent/pkg/exchange"
	"github.com/quantfield/hft-agent/pkg/logging"
	"github.com/quantfield/hft-agent/pkg/strategy"
	"github.com/quantfield/hft-agent/pkg/trader"
)

// replayVenue assigns ids from a range far above anything a recorded feed
// uses, so replayed events can never collide with our own submissions.
type replayVenue struct {
	nextID int64
}

func (v *replayVenue) PlaceOrder(order exchange.Order) int64 {
	v.nextID++
	return v.nextID
}

func (v *replayVenue) PlaceCancel(cancel exchange.Cancel) {}

func main() {
	var (
		configPath = flag.String("config", "", "path to yaml config; defaults apply when empty")
		eventsPath = flag.String("events", "events.csv", "recorded venue event stream")
		traderID   = flag.Int64("trader-id", 1, "trader identity for this run")
	)
	flag.Parse()

	logger := logging.NewLogger(logging.INFO)
	defer logger.Sync() //nolint:errcheck

	cfg := appconfig.Default()
	if *configPath != "" {
		loaded, err := appconfig.Load(*configPath)
		if err != nil {
			logger.Fatal("load config", zap.Error(err))
		}
		cfg = loaded
	}

	st := trader.NewState(trader.Config{
		TraderID:         *traderID,
		SentinelQty:      cfg.Trader.SentinelQty,
		BlockWindow:      cfg.Trader.BlockWindow,
		DefaultMarkPrice: cfg.Trader.DefaultMarkPrice,
	}, logger)

	strats := []strategy.Strategy{
		strategy.NewLargeOrderArb(cfg.LargeOrderArb),
		strategy.NewQuoter(cfg.Quoter),
	}
	if cfg.EnableNetFlowArb {
		strats = append(strats, strategy.NewNetFlowArb(cfg.NetFlowArb))
	}

	a := agent.New(agent.Config{
		EvalInterval: cfg.EvalInterval,
		LogBooks:     cfg.LogBooks,
	}, st, strats, &replayVenue{nextID: 1 << 40}, logger)

	if cfg.BookLogPath != "" {
		sink := booklog.New(cfg.BookLogPath, logger)
		defer sink.Close() //nolint:errcheck
		a.SetBookSink(sink)
	}
	if cfg.TradeLogPath != "" {
		sink := booklog.New(cfg.TradeLogPath, logger)
		defer sink.Close() //nolint:errcheck
		a.SetTradeSink(sink)
	}

	f, err := os.Open(*eventsPath)
	if err != nil {
		logger.Fatal("open events file", zap.Error(err))
	}
	defer f.Close() //nolint:errcheck

	events, packets := replay(a, f, logger)

	a.OnPacketEnd()
	logger.Info("replay finished",
		zap.Int("events", events),
		zap.Int("packets", packets),
		zap.String("pnl", st.PnL().StringFixed(2)),
		zap.Int64("volume", st.Volume()))
}

// replay parses one event per line and drives the agent. Lines:
//
//	PACKET
//	ACCEPT,<instrument>,<price>,<qty>,<BUY|SELL>,<order id>
//	TRADE,<instrument>,<price>,<qty>,<BUY|SELL>,<resting id>,<aggressing id>
//	CANCEL,<instrument>,<order id>
//	REJECT_ORDER,<reason>,<msg>
//	REJECT_CANCEL,<reason>,<msg>
//
// PACKET closes the current batch and opens the next one.
func replay(a *agent.Agent, f *os.File, logger *zap.Logger) (events, packets int) {
	scanner := bufio.NewScanner(f)
	a.OnPacketStart()

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Split(line, ",")
		switch fields[0] {
		case "PACKET":
			a.OnPacketEnd()
			a.OnPacketStart()
			packets++
			continue

		case "ACCEPT":
			if len(fields) != 6 {
				logger.Warn("malformed accept line", zap.String("line", line))
				continue
			}
			a.OnOrderAccepted(exchange.OrderAccepted{
				Instrument: fields[1],
				Price:      parseFloat(fields[2]),
				Qty:        parseInt(fields[3]),
				Side:       exchange.Side(fields[4]),
				OrderID:    parseInt(fields[5]),
			})

		case "TRADE":
			if len(fields) != 7 {
				logger.Warn("malformed trade line", zap.String("line", line))
				continue
			}
			a.OnTrade(exchange.TradeUpdate{
				Instrument:        fields[1],
				Price:             parseFloat(fields[2]),
				Qty:               parseInt(fields[3]),
				Side:              exchange.Side(fields[4]),
				RestingOrderID:    parseInt(fields[5]),
				AggressingOrderID: parseInt(fields[6]),
			})

		case "CANCEL":
			if len(fields) != 3 {
				logger.Warn("malformed cancel line", zap.String("line", line))
				continue
			}
			a.OnCancelAck(exchange.CancelAck{
				Instrument: fields[1],
				OrderID:    parseInt(fields[2]),
			})

		case "REJECT_ORDER":
			if len(fields) < 3 {
				logger.Warn("malformed reject line", zap.String("line", line))
				continue
			}
			a.OnOrderRejected(exchange.OrderRejected{
				Reason: exchange.RejectReason(parseInt(fields[1])),
				Msg:    strings.Join(fields[2:], ","),
			})

		case "REJECT_CANCEL":
			if len(fields) < 3 {
				logger.Warn("malformed reject line", zap.String("line", line))
				continue
			}
			a.OnCancelRejected(exchange.CancelRejected{
				Reason: exchange.RejectReason(parseInt(fields[1])),
				Msg:    strings.Join(fields[2:], ","),
			})

		default:
			logger.Warn("unknown event kind", zap.String("line", line))
			continue
		}
		events++
	}

	if err := scanner.Err(); err != nil {
		logger.Error("scan events file", zap.Error(err))
	}
	return events, packets
}

func parseFloat(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}

func parseInt(s string) int64 {
	v, _ := strconv.ParseInt(s, 10, 64)
	return v
}
