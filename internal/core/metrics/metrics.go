package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

// 业务指标；HTTP 层指标在 middleware.Metrics
var (
	OrdersPlaced = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "shop_orders_placed_total",
		Help: "Orders created by checkout",
	})
	Revenue = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "shop_revenue_total",
		Help: "Sum of order totals at checkout",
	})
	CartMutations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shop_cart_mutations_total",
		Help: "Cart mutations by operation and outcome",
	}, []string{"op", "result"})
	TokenRejections = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shop_token_rejections_total",
		Help: "Requests rejected by the access gate",
	}, []string{"reason"})
)

func init() {
	prometheus.MustRegister(OrdersPlaced, Revenue, CartMutations, TokenRejections)
}

func ObserveOrder(total decimal.Decimal) {
	OrdersPlaced.Inc()
	f, _ := total.Float64()
	Revenue.Add(f)
}

func ObserveCart(op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	CartMutations.WithLabelValues(op, result).Inc()
}
