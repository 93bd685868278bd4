// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import "fmt"

const (
	bannerFormat      = "Ocorreu um erro ao processar sua solicitação. (Tentativa %d)"
	errorMessageStart = "Desculpe, houve um erro ao processar sua solicitação. Detalhes do erro: "
)

// BannerText is the lastError text for a failed attempt. attempt is the
// failure counter before the increment, plus one.
func BannerText(attempt int) string {
	return fmt.Sprintf(bannerFormat, attempt)
}

// ErrorMessageText is the content of the error message appended to the
// transcript when a turn fails.
func ErrorMessageText(detail string) string {
	return errorMessageStart + detail
}
