// Command demo drives the exchange core end to end: two markets, deposits,
// crossing orders with partial fills, a cancellation, an expiring order, and
// two independent event-log consumers.
package main

import (
	"log"
	"time"

	"github.com/jadestone-web3/serum-dex-from-zero/pkg/openbook"
	"github.com/jadestone-web3/serum-dex-from-zero/pkg/util"
)

func main() {
	logger, err := util.NewLogger()
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	reg := openbook.NewRegistry(openbook.MarketConfig{
		FeeBps:      30, // 0.3%
		FeeReceiver: "fee_pool",
	})
	reg.CreateMarket("SOL/USDC")
	reg.CreateMarket("BTC/USDT")

	// ---- Funding ----
	must(reg.Deposit("SOL/USDC", "alice", 0, 100_000)) // quote only, alice buys
	must(reg.Deposit("SOL/USDC", "bob", 1_000, 0))     // base only, bob sells
	must(reg.Deposit("BTC/USDT", "carol", 10, 0))
	must(reg.Deposit("BTC/USDT", "dave", 0, 1_000_000))

	// ---- Resting orders ----
	askID, _, err := reg.PlaceOrder("SOL/USDC", "bob", openbook.Ask, 100, 50)
	if err != nil {
		sugar.Fatalw("place_failed", "err", err)
	}
	sugar.Infow("resting_ask", "order_id", askID, "price", 100, "qty", 50)

	_, _, err = reg.PlaceOrder("SOL/USDC", "bob", openbook.Ask, 105, 50)
	must(err)

	// ---- Crossing bid: fills 50 @ 100, then 10 @ 105, nothing rests ----
	bidID, fills, err := reg.PlaceOrder("SOL/USDC", "alice", openbook.Bid, 110, 60)
	must(err)
	for _, f := range fills {
		sugar.Infow("fill",
			"seq", f.Seq, "price", f.Price, "qty", f.Quantity,
			"maker", f.MakerOwner, "taker", f.TakerOwner, "fee", f.FeePaid)
	}
	sugar.Infow("taker_done", "order_id", bidID, "fills", len(fills))

	// ---- Cancel the rest of bob's second ask ----
	restingID := askID + 1
	_, cancelled, err := reg.CancelOrder("SOL/USDC", "bob", restingID)
	must(err)
	sugar.Infow("cancel", "order_id", restingID, "cancelled", cancelled)

	// ---- Expiring order: evaporates after its TTL ----
	expID, _, err := reg.PlaceOrderExpiring("SOL/USDC", "bob", openbook.Ask, 120, 10, time.Now().Unix()+1)
	must(err)
	sugar.Infow("expiring_ask", "order_id", expID, "ttl_s", 1)
	time.Sleep(1500 * time.Millisecond)
	// Any mutating operation sweeps lapsed orders first.
	must(reg.Deposit("SOL/USDC", "bob", 0, 0))

	// ---- Balances and fees ----
	for _, user := range []string{"alice", "bob", "fee_pool"} {
		bal, err := reg.BalancesOf("SOL/USDC", user)
		must(err)
		sugar.Infow("balance", "user", user,
			"avail_base", bal.AvailableBase, "frozen_base", bal.FrozenBase,
			"avail_quote", bal.AvailableQuote, "frozen_quote", bal.FrozenQuote)
	}
	fee, err := reg.FeeCollected("SOL/USDC")
	must(err)
	sugar.Infow("fee_collected", "market", "SOL/USDC", "quote", fee)

	// ---- Independent consumers drain the event log at their own pace ----
	crank1, err := reg.ConsumeEvents("SOL/USDC", "crank1", 2)
	must(err)
	sugar.Infow("crank1_batch", "events", len(crank1))
	crank2, err := reg.ConsumeEvents("SOL/USDC", "crank2", 100)
	must(err)
	sugar.Infow("crank2_batch", "events", len(crank2))
	crank1, err = reg.ConsumeEvents("SOL/USDC", "crank1", 100)
	must(err)
	sugar.Infow("crank1_batch", "events", len(crank1))

	// ---- Markets are isolated: BTC/USDT never saw any of this ----
	btcFee, err := reg.FeeCollected("BTC/USDT")
	must(err)
	sugar.Infow("isolation_check", "market", "BTC/USDT", "fee_collected", btcFee)
}

func must(err error) {
	if err != nil {
		log.Fatal(err)
	}
}
