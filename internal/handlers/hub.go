package handlers

import (
	ws "blackjack-table-go/pkg/websocket"
)

// hubProvider is set by main at startup so HTTP handlers can broadcast
// realtime table updates to spectators.
var hubProvider func() (*ws.Hub, bool)

func SetHubProvider(p func() (*ws.Hub, bool)) {
	hubProvider = p
}

func broadcastTableUpdate(tableID string, view RoundView) {
	if hubProvider == nil {
		return
	}
	hub, ok := hubProvider()
	if !ok || hub == nil {
		return
	}
	hub.Broadcast("table:"+tableID, "table_update", view)
}
