// Package templates holds the templ components of the status page.
package templates

import vm "github.com/ericfisherdev/homeworkbot/internal/adapter/driving/web/viewmodel"

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func deliveryResult(d vm.DeliveryViewModel) string {
	if d.Delivered {
		return "delivered"
	}
	return "failed: " + d.Error
}

func deliveryClass(d vm.DeliveryViewModel) string {
	if d.Delivered {
		return "ok"
	}
	return "error"
}
