package redis

import "fmt"

// SyncStateKey stores the last sync outcome for an order (completed/failed).
func SyncStateKey(orderNo string) string {
	return fmt.Sprintf("back_office:sync:state:%s", orderNo)
}

// PendingMarkerKey flags an order between its ledger commit and order commit.
func PendingMarkerKey(orderNo string) string {
	return fmt.Sprintf("back_office:sync:pending:%s", orderNo)
}

// PendingMarkerScanPattern matches all pending markers for the admin scan.
func PendingMarkerScanPattern() string {
	return "back_office:sync:pending:*"
}

// RateLimitOrderKey throttles status updates per order.
func RateLimitOrderKey(orderNo string) string {
	return fmt.Sprintf("back_office:rate:order:%s", orderNo)
}

// RateLimitIPKey is the fallback throttle key when no order_no is present.
func RateLimitIPKey(ip string) string {
	return fmt.Sprintf("back_office:rate:ip:%s", ip)
}
