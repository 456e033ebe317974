package models

// User represents the authenticated account as returned by the service.
// Replaced wholesale on re-login; never mutated locally.
type User struct {
	ID       int    `json:"id_pengguna"`
	Username string `json:"username"`
	FullName string `json:"nama_pengguna"`
}

// InvestmentType is read-only reference data used to tag a History.
type InvestmentType struct {
	ID          int     `json:"id_tipe"`
	Name        string  `json:"nama_tipe"`
	Description *string `json:"deskripsi"`
}

// History is a persisted compound-interest calculation owned by one user.
// TypeName, Username and FullName are denormalized by the server.
type History struct {
	ID           int     `json:"id_riwayat"`
	Note         *string `json:"keterangan"`
	Principal    float64 `json:"modal_awal_p"`
	Rate         float64 `json:"bunga_r"`
	Years        int     `json:"waktu_t"`
	FinalBalance float64 `json:"saldo_akhir_a"`
	SavedAt      string  `json:"tgl_simpan"`
	TypeID       int     `json:"id_tipe"`
	TypeName     string  `json:"nama_tipe"`
	Username     string  `json:"username"`
	FullName     string  `json:"nama_pengguna"`
}

// CalculationData is a transient computation result. It exists only in
// controller state until the user saves it as a History.
type CalculationData struct {
	Principal     float64 `json:"modal_awal_p"`
	Rate          float64 `json:"bunga_r"`
	Years         int     `json:"waktu_t"`
	FinalBalance  float64 `json:"saldo_akhir_a"`
	TotalInterest float64 `json:"total_bunga"`
	Formula       string  `json:"formula"`
}
