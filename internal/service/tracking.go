package service

import (
	"time"

	"github.com/mmeshcher/streetwear-storefront/internal/model"
)

type waypoint struct {
	label    string
	lat, lng float64
	offset   time.Duration
}

var (
	wpWarehouse   = waypoint{label: "Warehouse", lat: 14.5547, lng: 121.0244}
	wpSorting     = waypoint{label: "Sorting Facility", lat: 14.5176, lng: 121.0509, offset: 24 * time.Hour}
	wpHub         = waypoint{label: "Local Distribution Hub", lat: 14.6091, lng: 121.0223, offset: 48 * time.Hour}
	wpOutDelivery = waypoint{label: "Out for Delivery", lat: 14.6507, lng: 121.0494, offset: 72 * time.Hour}
	wpDestination = waypoint{label: "Your Address", lat: 14.6760, lng: 121.0437}
)

func (w waypoint) point(date *time.Time) model.TrackingPoint {
	return model.TrackingPoint{Lat: w.lat, Lng: w.lng, Label: w.label, Date: date}
}

func (w waypoint) dated(orderDate time.Time) model.TrackingPoint {
	d := orderDate.Add(w.offset)
	return w.point(&d)
}

// trackingPointsFor строит маршрут доставки по статусу заказа. Для доставленного заказа точка
// назначения датируется моментом доставки, а если он неизвестен, то now.
func trackingPointsFor(o model.Order, now time.Time) []model.TrackingPoint {
	switch o.Status {
	case model.OrderStatusProcessing:
		return []model.TrackingPoint{
			wpWarehouse.dated(o.Date),
			wpDestination.point(nil),
		}
	case model.OrderStatusShipped:
		return []model.TrackingPoint{
			wpWarehouse.dated(o.Date),
			wpSorting.dated(o.Date),
			wpHub.dated(o.Date),
			wpDestination.point(nil),
		}
	case model.OrderStatusDelivered:
		delivered := now
		if o.DeliveredAt != nil {
			delivered = *o.DeliveredAt
		}
		return []model.TrackingPoint{
			wpWarehouse.dated(o.Date),
			wpSorting.dated(o.Date),
			wpHub.dated(o.Date),
			wpOutDelivery.dated(o.Date),
			wpDestination.point(&delivered),
		}
	default:
		return []model.TrackingPoint{
			wpWarehouse.dated(o.Date),
			wpSorting.dated(o.Date),
			wpHub.dated(o.Date),
			wpOutDelivery.point(nil),
			wpDestination.point(nil),
		}
	}
}

// TrackingPoints возвращает маршрут доставки заказа. Маршрут вычисляется при первом обращении
// и сохраняется в переданном заказе; смена статуса сбрасывает его.
func (s *Service) TrackingPoints(o *model.Order) []model.TrackingPoint {
	if len(o.TrackingPoints) == 0 {
		o.TrackingPoints = trackingPointsFor(*o, s.now().UTC())
	}
	return o.TrackingPoints
}
