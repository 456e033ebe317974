package models

// Request models
type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required,min=6"`
	FullName string `json:"nama_pengguna" binding:"required"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type CalculationRequest struct {
	Principal float64 `json:"modal_awal_p" binding:"required"`
	Rate      float64 `json:"bunga_r" binding:"required"`
	Years     int     `json:"waktu_t" binding:"required"`
}

// SaveHistoryRequest is shared by the save (POST) and update (PUT) paths.
type SaveHistoryRequest struct {
	TypeID       int     `json:"id_tipe" binding:"required"`
	Note         *string `json:"keterangan"`
	Principal    float64 `json:"modal_awal_p" binding:"required"`
	Rate         float64 `json:"bunga_r" binding:"required"`
	Years        int     `json:"waktu_t" binding:"required"`
	FinalBalance float64 `json:"saldo_akhir_a" binding:"required"`
}

// Response models
type AuthResponse struct {
	Message string `json:"message"`
	Token   string `json:"token,omitempty"`
	User    *User  `json:"user,omitempty"`
	Error   string `json:"error,omitempty"`
}

type CalculationResponse struct {
	Success bool            `json:"success"`
	Data    CalculationData `json:"data"`
}

type HistoryResponse struct {
	Success bool      `json:"success"`
	Count   int       `json:"count"`
	Data    []History `json:"data"`
}

type InvestmentTypesResponse struct {
	Success bool             `json:"success"`
	Count   int              `json:"count"`
	Data    []InvestmentType `json:"data"`
}

// MessageResponse covers mutations that return no entity payload.
type MessageResponse struct {
	Message string `json:"message"`
}
