package handler

import (
	"context"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"shi-bot/internal/menu"
	"shi-bot/internal/service"
)

// ShopHandler handles the item shop.
type ShopHandler struct {
	economy  *service.EconomyService
	catalog  *service.CatalogService
	currency string
}

// NewShopHandler creates a new ShopHandler.
func NewShopHandler(economy *service.EconomyService, catalog *service.CatalogService, currency string) *ShopHandler {
	return &ShopHandler{economy: economy, catalog: catalog, currency: currency}
}

// HandleShopCallback lists the catalog with a buy button per item.
func (h *ShopHandler) HandleShopCallback(c tele.Context) error {
	items, err := h.catalog.ListItems(context.Background())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list items")
		return c.Respond(&tele.CallbackResponse{Text: "❌ Shop unavailable", ShowAlert: true})
	}
	_ = c.Respond()
	return c.EditOrSend(menu.FormatShop(items, h.currency), menu.ShopMenu(items))
}

// HandleBuyItemCallback buys one unit of the item in the callback data.
func (h *ShopHandler) HandleBuyItemCallback(c tele.Context, data string) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	itemID, ok := menu.ItemIDFromCallback(data)
	if !ok {
		return c.Respond(&tele.CallbackResponse{Text: "❌ Unknown item", ShowAlert: true})
	}

	bought, err := h.economy.PurchaseItem(context.Background(), sender.ID, itemID)
	if err != nil {
		log.Error().Err(err).
			Int64("user_id", sender.ID).
			Int64("item_id", itemID).
			Msg("Purchase failed")
		return c.Respond(&tele.CallbackResponse{Text: "❌ Purchase failed, please try again later.", ShowAlert: true})
	}

	return c.Respond(&tele.CallbackResponse{
		Text:      menu.FormatPurchase(bought, h.currency),
		ShowAlert: true,
	})
}
