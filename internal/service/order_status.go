package service

import "github.com/dasam-next/internal/constants"

// allowedTransitions 订单状态机
// 在线支付：pending -> paid -> shipped
// 货到付款：pending -> cod_confirmed -> shipped
// 状态只进不退，不允许跨步。
var allowedTransitions = map[string]map[string]bool{
	constants.OrderStatusPending: {
		constants.OrderStatusPaid:         true,
		constants.OrderStatusCodConfirmed: true,
	},
	constants.OrderStatusPaid: {
		constants.OrderStatusShipped: true,
	},
	constants.OrderStatusCodConfirmed: {
		constants.OrderStatusShipped: true,
	},
	constants.OrderStatusShipped: {},
}

// isTransitionAllowed 判断状态迁移是否合法
func isTransitionAllowed(from, to string) bool {
	if from == to {
		return false
	}
	targets, ok := allowedTransitions[from]
	if !ok {
		return false
	}
	return targets[to]
}
