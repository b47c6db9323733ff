package vectorizer

import "math"

// handcraftedV1 layout (128 dims):
//
//	0-15    price action summary (OHLC relative to open, return moments,
//	        drawdown/run-up, timing of extremes)
//	16-31   close path in 16 time buckets, relative to open
//	32-47   volume and flow summary
//	48-55   buy volume share in 8 time buckets
//	56-63   sell volume share in 8 time buckets
//	64-79   trade count and wallet concentration summary
//	80-87   trade count share in 8 time buckets
//	88-95   wallet count path in 8 time buckets
//	96-111  risk summary (dev/sniper holdings, liquidity, volatility,
//	        sampling gaps, density)
//	112-119 mean absolute return in 8 time buckets
//	120-127 liquidity path in 8 time buckets, relative to first reading
type handcraftedV1 struct{}

const (
	pathBuckets   = 16
	seriesBuckets = 8

	// ExpectedSampleInterval is the nominal ingestion cadence used to size a
	// window's snapshot capacity.
	ExpectedSampleInterval = 10.0
)

func (handcraftedV1) Name() string          { return StrategyHandcraftedV1 }
func (handcraftedV1) Dimension() int        { return Dimension }
func (handcraftedV1) LayoutVersion() string { return "handcrafted_v1.0" }
func (handcraftedV1) sealed()               {}

func (h handcraftedV1) Encode(in Input) []float64 {
	if len(in.Snapshots) == 0 {
		return make([]float64, Dimension)
	}
	s := newSeries(in)
	f := make([]float64, 0, Dimension)
	f = s.priceFeatures(f)
	f = s.flowFeatures(f)
	f = s.activityFeatures(f)
	f = s.riskFeatures(f)
	return f
}

// series holds the column view of a window's snapshots.
type series struct {
	n       int
	seconds float64
	offsets []float64 // position inside the window, 0..1

	price, buy, sell, volume    []float64
	buys, sells, trades         []float64
	wallets, top10, dev, sniper []float64
	liquidity                   []float64
	returns, logReturns         []float64
}

func newSeries(in Input) series {
	n := len(in.Snapshots)
	s := series{n: n, seconds: in.Seconds()}
	s.offsets = make([]float64, n)
	alloc := func() []float64 { return make([]float64, n) }
	s.price, s.buy, s.sell, s.volume = alloc(), alloc(), alloc(), alloc()
	s.buys, s.sells, s.trades = alloc(), alloc(), alloc()
	s.wallets, s.top10, s.dev, s.sniper, s.liquidity = alloc(), alloc(), alloc(), alloc(), alloc()

	for i, snap := range in.Snapshots {
		off := ratio(snap.Timestamp.Sub(in.WindowStart).Seconds(), s.seconds)
		s.offsets[i] = math.Min(math.Max(off, 0), math.Nextafter(1, 0))
		s.price[i] = snap.Price
		s.buy[i] = snap.VolumeBuy
		s.sell[i] = snap.VolumeSell
		s.volume[i] = snap.VolumeBuy + snap.VolumeSell
		s.buys[i] = float64(snap.BuyCount)
		s.sells[i] = float64(snap.SellCount)
		s.trades[i] = float64(snap.BuyCount + snap.SellCount)
		s.wallets[i] = float64(snap.UniqueWallets)
		s.top10[i] = snap.Top10HolderPct
		s.dev[i] = snap.DevHoldingPct
		s.sniper[i] = snap.SniperPct
		s.liquidity[i] = snap.Liquidity
	}

	s.returns = make([]float64, 0, n)
	s.logReturns = make([]float64, 0, n)
	for i := 1; i < n; i++ {
		s.returns = append(s.returns, ratio(s.price[i]-s.price[i-1], s.price[i-1]))
		s.logReturns = append(s.logReturns, logRatio(s.price[i], s.price[i-1]))
	}
	return s
}

func (s series) bucket(i, buckets int) int {
	return min(int(s.offsets[i]*float64(buckets)), buckets-1)
}

func (s series) bucketSums(values []float64, buckets int) []float64 {
	out := make([]float64, buckets)
	for i, v := range values {
		out[s.bucket(i, buckets)] += v
	}
	return out
}

// bucketLast returns the last reading in each bucket, carrying the previous
// bucket's value forward through empty buckets.
func (s series) bucketLast(values []float64, buckets int, fill float64) []float64 {
	out := make([]float64, buckets)
	seen := make([]bool, buckets)
	for i, v := range values {
		b := s.bucket(i, buckets)
		out[b] = v
		seen[b] = true
	}
	for b := range out {
		if !seen[b] {
			out[b] = fill
		}
		fill = out[b]
	}
	return out
}

func (s series) priceFeatures(f []float64) []float64 {
	p := s.price
	open, close := p[0], p[s.n-1]
	high, low := maxOf(p), minOf(p)

	positive := 0
	for _, r := range s.returns {
		if r > 0 {
			positive++
		}
	}

	f = append(f,
		ratio(high-open, open),
		ratio(low-open, open),
		ratio(close-open, open),
		logRatio(close, open),
		ratio(high-low, open),
		ratio(close-low, high-low),
		mean(s.returns),
		stddev(s.returns),
		minOf(s.returns),
		maxOf(s.returns),
		skewness(s.returns),
		ratio(float64(positive), float64(len(s.returns))),
		maxDrawdown(p),
		maxRunUp(p),
		s.offsets[argmax(p)],
		s.offsets[argmin(p)],
	)

	for _, v := range s.bucketLast(p, pathBuckets, open) {
		f = append(f, ratio(v-open, open))
	}
	return f
}

func (s series) flowFeatures(f []float64) []float64 {
	totBuy, totSell := sum(s.buy), sum(s.sell)
	total := totBuy + totSell

	perNet := make([]float64, s.n)
	var firstHalf, secondHalf float64
	var qFirstBuy, qFirstAll, qLastBuy, qLastAll float64
	netBuying := 0
	for i := 0; i < s.n; i++ {
		perNet[i] = ratio(s.buy[i]-s.sell[i], s.volume[i])
		if s.buy[i] > s.sell[i] {
			netBuying++
		}
		if s.offsets[i] < 0.5 {
			firstHalf += s.volume[i]
		} else {
			secondHalf += s.volume[i]
		}
		switch {
		case s.offsets[i] < 0.25:
			qFirstBuy += s.buy[i]
			qFirstAll += s.volume[i]
		case s.offsets[i] >= 0.75:
			qLastBuy += s.buy[i]
			qLastAll += s.volume[i]
		}
	}

	var volAfterFirst []float64
	if s.n > 1 {
		volAfterFirst = s.volume[1:]
	}

	f = append(f,
		math.Log1p(totBuy),
		math.Log1p(totSell),
		ratio(totBuy-totSell, total),
		ratio(totBuy, total),
		mean(perNet),
		stddev(perNet),
		ratio(maxOf(s.volume), total),
		ratio(secondHalf-firstHalf, total),
		math.Log1p(total),
		math.Log1p(ratio(total, s.seconds)),
		ratio(qLastBuy, qLastAll)-ratio(qFirstBuy, qFirstAll),
		ratio(maxOf(s.buy), totBuy),
		ratio(maxOf(s.sell), totSell),
		ratio(stddev(s.volume), mean(s.volume)),
		ratio(float64(netBuying), float64(s.n)),
		correlation(s.returns, volAfterFirst),
	)

	for _, v := range s.bucketSums(s.buy, seriesBuckets) {
		f = append(f, ratio(v, total))
	}
	for _, v := range s.bucketSums(s.sell, seriesBuckets) {
		f = append(f, ratio(v, total))
	}
	return f
}

func (s series) activityFeatures(f []float64) []float64 {
	totBuys, totSells := sum(s.buys), sum(s.sells)
	totTrades := totBuys + totSells
	totBuyVol, totSellVol := sum(s.buy), sum(s.sell)

	w0, wn := s.wallets[0], s.wallets[s.n-1]

	f = append(f,
		math.Log1p(totBuys),
		math.Log1p(totSells),
		ratio(totBuys, totTrades),
		math.Log1p(ratio(totTrades, s.seconds/60)),
		math.Log1p(ratio(totBuyVol+totSellVol, totTrades)),
		math.Tanh(logRatio(ratio(totBuyVol, totBuys), ratio(totSellVol, totSells))),
		ratio(stddev(s.trades), mean(s.trades)),
		ratio(maxOf(s.trades), totTrades),
		math.Log1p(w0),
		math.Log1p(wn),
		signedLog1p(wn-w0),
		ratio(wn-w0, math.Max(totTrades, 1)),
		mean(s.top10),
		stddev(s.top10),
		s.top10[s.n-1]-s.top10[0],
		maxOf(s.top10),
	)

	for _, v := range s.bucketSums(s.trades, seriesBuckets) {
		f = append(f, ratio(v, totTrades))
	}
	for _, v := range s.bucketLast(s.wallets, seriesBuckets, w0) {
		f = append(f, ratio(v, math.Max(wn, 1)))
	}
	return f
}

func (s series) riskFeatures(f []float64) []float64 {
	liq0 := s.liquidity[0]
	high, low := maxOf(s.price), minOf(s.price)

	// Gaps between consecutive samples, including the window edges.
	gaps := make([]float64, 0, s.n+1)
	prev := 0.0
	for _, off := range s.offsets {
		gaps = append(gaps, off-prev)
		prev = off
	}
	gaps = append(gaps, 1-prev)

	f = append(f,
		mean(s.dev),
		s.dev[s.n-1],
		s.dev[s.n-1]-s.dev[0],
		mean(s.sniper),
		s.sniper[s.n-1],
		s.sniper[s.n-1]-s.sniper[0],
		math.Log1p(math.Max(mean(s.liquidity), 0)),
		ratio(s.liquidity[s.n-1]-liq0, liq0),
		ratio(minOf(s.liquidity), maxOf(s.liquidity)),
		math.Tanh(ratio(sum(s.volume), mean(s.liquidity))),
		stddev(s.logReturns)*math.Sqrt(float64(len(s.logReturns))),
		logRatio(high, low),
		mean(gaps),
		maxOf(gaps),
		stddev(gaps),
		density(s.n, s.seconds),
	)

	absByBucket := make([]float64, seriesBuckets)
	countByBucket := make([]float64, seriesBuckets)
	for i, r := range s.returns {
		b := s.bucket(i+1, seriesBuckets)
		absByBucket[b] += math.Abs(r)
		countByBucket[b]++
	}
	for b := range absByBucket {
		f = append(f, ratio(absByBucket[b], countByBucket[b]))
	}
	for _, v := range s.bucketLast(s.liquidity, seriesBuckets, liq0) {
		f = append(f, ratio(v-liq0, liq0))
	}
	return f
}

func density(n int, seconds float64) float64 {
	capacity := seconds / ExpectedSampleInterval
	if capacity <= 0 {
		return 0
	}
	return math.Min(1, float64(n)/capacity)
}

func logRatio(a, b float64) float64 {
	if a <= 0 || b <= 0 {
		return 0
	}
	return math.Log(a / b)
}

func maxDrawdown(p []float64) float64 {
	peak, worst := p[0], 0.0
	for _, v := range p {
		peak = math.Max(peak, v)
		if dd := ratio(peak-v, peak); dd > worst {
			worst = dd
		}
	}
	return worst
}

func maxRunUp(p []float64) float64 {
	trough, best := p[0], 0.0
	for _, v := range p {
		trough = math.Min(trough, v)
		if ru := ratio(v-trough, trough); ru > best {
			best = ru
		}
	}
	return best
}

func argmax(xs []float64) int {
	idx := 0
	for i, x := range xs {
		if x > xs[idx] {
			idx = i
		}
	}
	return idx
}

func argmin(xs []float64) int {
	idx := 0
	for i, x := range xs {
		if x < xs[idx] {
			idx = i
		}
	}
	return idx
}
