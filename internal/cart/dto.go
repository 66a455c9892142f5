package cart

// AddRequest payload
// swagger:model AddToCartRequest
type AddRequest struct {
	UserID    string `json:"userId" binding:"required" example:"b2f5ff47-2b1e-4f22-8a96-5f3c1f2f2e7b"`
	ProductID string `json:"productId" binding:"required" example:"tomato"`
	Size      string `json:"size" binding:"required" example:"1kg"`
	Quantity  int    `json:"quantity" example:"2"`
}

// RemoveRequest payload
// swagger:model RemoveFromCartRequest
type RemoveRequest struct {
	UserID    string `json:"userId" binding:"required"`
	ProductID string `json:"productId" binding:"required"`
	Size      string `json:"size" binding:"required"`
}

// View is the JSON shape of a cart.
type View struct {
	UserID string `json:"userId"`
	Items  []Line `json:"items"`
}

func (s Snapshot) View() View {
	return View{UserID: s.UserID, Items: s.Lines()}
}
