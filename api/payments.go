package api

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/amadorflix/amadorflix-server/database/model"
)

// webhookSecretHeader carries the shared secret on gateway callbacks.
const webhookSecretHeader = "X-Webhook-Secret"

// defaultPlanAmountCents is the monthly premium plan price (BRL cents).
const defaultPlanAmountCents = 1990

// PaymentResponse is the payment projection returned to clients.
type PaymentResponse struct {
	TxID        string `json:"txid"`
	AmountCents int64  `json:"amountCents"`
	Code        string `json:"code"`
	Status      string `json:"status"`
}

func makePaymentResponse(p *model.Payment) PaymentResponse {
	return PaymentResponse{
		TxID:        p.TxID,
		AmountCents: p.AmountCents,
		Code:        p.Code,
		Status:      p.Status,
	}
}

// POST /api/payments/pix
//
// paymentCreateHandler creates a pending PIX charge for the session user
// and returns the copy-and-paste code. The gateway itself is external; this
// only records the charge so the confirmation webhook can resolve it.
func (a *API) paymentCreateHandler(w http.ResponseWriter, r *http.Request) {
	user := a.requireUser(w, r)
	if user == nil {
		return
	}

	var request struct {
		AmountCents int64 `json:"amountCents"`
	}
	json.NewDecoder(r.Body).Decode(&request)
	if request.AmountCents <= 0 {
		request.AmountCents = defaultPlanAmountCents
	}

	payment := &model.Payment{
		TxID:        uuid.NewString(),
		UserID:      user.ID,
		AmountCents: request.AmountCents,
		Status:      model.PaymentPending,
		Created:     a.now().UTC(),
	}
	payment.Code = pixCode(payment.TxID, payment.AmountCents)

	if err := a.repo.Users.InsertPayment(r.Context(), payment); err != nil {
		apierror(w, msgInternal, http.StatusInternalServerError)
		return
	}
	serveJSONStatus(makePaymentResponse(payment), w, http.StatusCreated)
}

// GET /api/payments/pix/{txid}
//
// paymentStatusHandler returns the status of one payment. Only the payer
// or an admin can see it.
func (a *API) paymentStatusHandler(w http.ResponseWriter, r *http.Request) {
	user := a.requireUser(w, r)
	if user == nil {
		return
	}

	payment, err := a.repo.Users.GetPayment(r.Context(), mux.Vars(r)["txid"])
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			apierror(w, "Pagamento não encontrado", http.StatusNotFound)
		} else {
			apierror(w, msgInternal, http.StatusInternalServerError)
		}
		return
	}
	if payment.UserID != user.ID && !user.IsAdmin() {
		apierror(w, msgForbidden, http.StatusForbidden)
		return
	}
	serveJSON(makePaymentResponse(payment), w)
}

// POST /api/payments/pix/{txid}/confirm
//
// paymentConfirmHandler is the gateway callback: it marks the payment paid
// and flips the payer's premium flag. Guarded by the shared webhook secret,
// not by a session. Idempotent.
func (a *API) paymentConfirmHandler(w http.ResponseWriter, r *http.Request) {
	secret := r.Header.Get(webhookSecretHeader)
	if a.webhookSecret == "" ||
		subtle.ConstantTimeCompare([]byte(secret), []byte(a.webhookSecret)) != 1 {
		apierror(w, msgForbidden, http.StatusForbidden)
		return
	}

	payment, err := a.repo.Users.GetPayment(r.Context(), mux.Vars(r)["txid"])
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			apierror(w, "Pagamento não encontrado", http.StatusNotFound)
		} else {
			apierror(w, msgInternal, http.StatusInternalServerError)
		}
		return
	}

	if err := a.repo.Users.MarkPaymentPaid(r.Context(), payment.TxID); err != nil {
		apierror(w, msgInternal, http.StatusInternalServerError)
		return
	}
	if err := a.repo.Users.SetPremium(r.Context(), payment.UserID, true); err != nil {
		apierror(w, msgInternal, http.StatusInternalServerError)
		return
	}

	serveJSON(map[string]any{
		"success": true,
		"status":  model.PaymentPaid,
	}, w)
}

// pixCode assembles the EMV-style PIX copy-and-paste payload for a charge.
func pixCode(txID string, amountCents int64) string {
	emv := func(id, value string) string {
		return fmt.Sprintf("%s%02d%s", id, len(value), value)
	}

	merchantAccount := emv("00", "br.gov.bcb.pix") + emv("05", txID)
	amount := fmt.Sprintf("%d.%02d", amountCents/100, amountCents%100)

	payload := emv("00", "01") + // payload format indicator
		emv("26", merchantAccount) +
		emv("52", "0000") + // merchant category code
		emv("53", "986") + // currency: BRL
		emv("54", amount) +
		emv("58", "BR") +
		emv("59", "AMADOR FLIX") +
		emv("60", "SAO PAULO") +
		emv("62", emv("05", "***")) +
		"6304" // CRC field header, value appended below
	return payload + fmt.Sprintf("%04X", crc16ccitt([]byte(payload)))
}

// crc16ccitt is CRC-16/CCITT-FALSE, the checksum the PIX EMV payload ends with.
func crc16ccitt(data []byte) uint16 {
	var crc uint16 = 0xFFFF
	for _, b := range data {
		crc ^= uint16(b) << 8
		for i := 0; i < 8; i++ {
			if crc&0x8000 != 0 {
				crc = crc<<1 ^ 0x1021
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}
