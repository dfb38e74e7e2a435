package main

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dshills/postmortem/internal/capture"
)

type lineItem struct {
	SKU      string
	Quantity int
	Price    float64
}

type cart struct {
	ID       int
	Customer string
	Items    []lineItem
	Coupons  map[string]float64
}

func demoRoutes(r chi.Router) {
	r.Get("/demo/panic", handleDemoPanic)
	r.Get("/demo/index", handleDemoIndex)
}

// handleDemoPanic applies a coupon larger than the cart total.
func handleDemoPanic(w http.ResponseWriter, r *http.Request) {
	c := &cart{
		ID:       1042,
		Customer: "ada",
		Items: []lineItem{
			{SKU: "book-go", Quantity: 1, Price: 39.5},
			{SKU: "mug", Quantity: 2, Price: 8},
		},
		Coupons: map[string]float64{"WELCOME": 100},
	}
	capture.BindLocals(r.Context(), "handleDemoPanic", "cart", c, "request", r.URL.String())

	total := checkout(r, c)
	fmt.Fprintf(w, "total: %.2f\n", total)
}

func checkout(r *http.Request, c *cart) float64 {
	subtotal := 0.0
	for _, item := range c.Items {
		subtotal += float64(item.Quantity) * item.Price
	}
	capture.BindLocals(r.Context(), "checkout", "cart", c, "subtotal", subtotal)
	return applyCoupons(r, subtotal, c.Coupons)
}

func applyCoupons(r *http.Request, subtotal float64, coupons map[string]float64) float64 {
	total := subtotal
	for code, amount := range coupons {
		capture.BindLocals(r.Context(), "applyCoupons", "code", code, "amount", amount, "total", total, "coupons", coupons)
		total -= amount
		if total < 0 {
			panic(fmt.Errorf("coupon %s makes total negative: %.2f", code, total))
		}
	}
	return total
}

// handleDemoIndex indexes past the end of a slice; no locals are bound.
func handleDemoIndex(w http.ResponseWriter, r *http.Request) {
	items := []string{"a", "b"}
	n, _ := strconv.Atoi(r.URL.Query().Get("n"))
	fmt.Fprintln(w, items[n+2])
}
