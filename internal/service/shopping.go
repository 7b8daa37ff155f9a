package service

import (
	"context"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/Bigbrotherx/foodgram/backend/internal/errs"
	"github.com/Bigbrotherx/foodgram/backend/internal/models"
)

// CartLine is one ingredient line of a recipe in a cart
type CartLine struct {
	Name   string
	Unit   string
	Amount int
}

// ShoppingItem is a summed entry of the shopping list
type ShoppingItem struct {
	Key   string
	Total int
}

// ShoppingKey identifies an item by ingredient name and unit
func ShoppingKey(name, unit string) string {
	return name + "(" + unit + ")"
}

// Aggregate sums amounts per name and unit, keeping the order in which
// each key is first seen.
func Aggregate(lines []CartLine) []ShoppingItem {
	index := make(map[string]int, len(lines))
	items := make([]ShoppingItem, 0, len(lines))
	for _, line := range lines {
		key := ShoppingKey(line.Name, line.Unit)
		if i, ok := index[key]; ok {
			items[i].Total += line.Amount
			continue
		}
		index[key] = len(items)
		items = append(items, ShoppingItem{Key: key, Total: line.Amount})
	}
	return items
}

// Render formats items as "<key> - <total>" lines joined by newlines
func Render(items []ShoppingItem) string {
	var b strings.Builder
	for i, item := range items {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(item.Key)
		b.WriteString(" - ")
		b.WriteString(strconv.Itoa(item.Total))
	}
	return b.String()
}

// ShoppingService builds the downloadable shopping list of a user
type ShoppingService struct {
	db *gorm.DB
}

func NewShoppingService(db *gorm.DB) *ShoppingService {
	return &ShoppingService{db: db}
}

// CartLines loads the ingredient lines of every recipe in the user's cart,
// in the order recipes were added and then in recipe line order.
func (s *ShoppingService) CartLines(ctx context.Context, userID uint) ([]CartLine, error) {
	var lines []CartLine
	err := s.db.WithContext(ctx).
		Model(&models.ShoppingCartEntry{}).
		Select("ingredients.name AS name, ingredients.measurement_unit AS unit, recipe_ingredients.amount AS amount").
		Joins("JOIN recipe_ingredients ON recipe_ingredients.recipe_id = shopping_cart_entries.recipe_id").
		Joins("JOIN ingredients ON ingredients.id = recipe_ingredients.ingredient_id").
		Where("shopping_cart_entries.user_id = ?", userID).
		Order("shopping_cart_entries.id, recipe_ingredients.id").
		Scan(&lines).Error
	if err != nil {
		return nil, errs.FromDB(err, "shopping cart")
	}
	return lines, nil
}

// GenerateShoppingList returns the aggregated list; an empty cart gives ""
func (s *ShoppingService) GenerateShoppingList(ctx context.Context, userID uint) (string, error) {
	lines, err := s.CartLines(ctx, userID)
	if err != nil {
		return "", err
	}
	return Render(Aggregate(lines)), nil
}
