// Package i18n holds the UI translations (fr, en) and the request language helpers.
package i18n

import (
	"context"
	"strings"
)

// DefaultLang is used when nothing else matches.
const DefaultLang = "fr"

type langKey struct{}

// WithLang returns a context carrying the UI language.
func WithLang(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, langKey{}, lang)
}

// LangFromContext returns the language stored by WithLang, or DefaultLang.
func LangFromContext(ctx context.Context) string {
	if lang, ok := ctx.Value(langKey{}).(string); ok && Supported(lang) {
		return lang
	}
	return DefaultLang
}

// Supported reports whether translations exist for lang.
func Supported(lang string) bool {
	_, ok := translations[lang]
	return ok
}

// DetectLanguage picks the first supported language of an Accept-Language header.
func DetectLanguage(header string) string {
	for _, part := range strings.Split(header, ",") {
		tag := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
		base := strings.ToLower(strings.SplitN(tag, "-", 2)[0])
		if Supported(base) {
			return base
		}
	}
	return DefaultLang
}

// T translates code. Unknown languages fall back to DefaultLang, unknown codes to the code itself.
func T(lang, code string) string {
	if m, ok := translations[lang]; ok {
		if s, ok := m[code]; ok {
			return s
		}
	}
	if s, ok := translations[DefaultLang][code]; ok {
		return s
	}
	return code
}

var translations = map[string]map[string]string{
	"fr": {
		"app_name":      "Facturation",
		"nav_invoices":  "Factures",
		"nav_customers": "Clients",
		"nav_products":  "Produits",

		"required":         "Requis",
		"invalid":          "Invalide",
		"invalid_date":     "Date invalide (AAAA-MM-JJ)",
		"before_date":      "Doit être postérieure ou égale à la date",
		"too_small":        "Valeur trop petite",
		"not_found":        "Introuvable",
		"unknown_line":     "Ligne inconnue",
		"must_be_positive": "Doit être positif",

		"invoices_title":    "Factures",
		"invoice_title":     "Facture",
		"invoice_new":       "Nouvelle facture",
		"invoice_edit":      "Modifier la facture",
		"invoice_export":    "Exporter (XLSX)",
		"invoice_pdf":       "Télécharger le PDF",
		"col_id":            "N°",
		"col_customer":      "Client",
		"col_address":       "Adresse",
		"col_total":         "Total",
		"col_tax":           "TVA",
		"col_finalized":     "Finalisée",
		"col_paid":          "Payée",
		"col_date":          "Date",
		"col_deadline":      "Échéance",
		"col_actions":       "Actions",
		"col_product":       "Produit",
		"col_quantity":      "Quantité",
		"col_unit":          "Unité",
		"col_unit_price_ht": "PU HT",
		"col_vat_rate":      "Taux TVA",
		"col_unit_tax":      "TVA unitaire",
		"col_unit_price":    "PU TTC",
		"col_name":          "Nom",
		"col_city":          "Ville",
		"col_country":       "Pays",
		"col_label":         "Libellé",
		"yes":               "Oui",
		"no":                "Non",
		"action_edit":       "Modifier",
		"action_delete":     "Supprimer",
		"action_finalize":   "Finaliser",
		"action_pay":        "Payer",
		"action_view":       "Voir",
		"action_save":       "Enregistrer",
		"action_cancel":     "Annuler",
		"action_add":        "Ajouter",
		"action_remove":     "Retirer",
		"action_restore":    "Rétablir",
		"action_search":     "Rechercher",
		"status_finalized":  "Finalisée",
		"status_paid":       "Payée",
		"status_draft":      "Brouillon",
		"confirm_delete":    "Supprimer cette facture ?",
		"confirm_finalize":  "Finaliser cette facture ?",
		"confirm_pay":       "Marquer cette facture comme payée ?",
		"empty_list":        "Aucun élément.",
		"per_page":          "Par page",
		"page_first":        "Première",
		"page_prev":         "Précédente",
		"page_next":         "Suivante",
		"page_last":         "Dernière",
		"lines_title":       "Lignes",
		"lines_new":         "Nouvelles lignes",
		"line_marked":       "Sera supprimée",
		"add_line":          "Ajouter une ligne",
		"total_without_tax": "Total HT",
		"total_tax":         "Total TVA",
		"total_with_tax":    "Total TTC",
		"customers_title":   "Clients",
		"products_title":    "Produits",
		"select_customer":   "Choisir un client",
		"customer_search":   "Rechercher un client",
		"select_product":    "Choisir un produit",
		"unit_hour":         "heure",
		"unit_day":          "jour",
		"unit_piece":        "pièce",

		"flash_invoice_saved":     "Facture enregistrée.",
		"flash_invoice_created":   "Facture créée.",
		"flash_invoice_finalized": "Facture finalisée.",
		"flash_invoice_paid":      "Facture marquée comme payée.",
		"flash_invoice_deleted":   "Facture supprimée.",
		"flash_form_invalid":      "Le formulaire contient des erreurs.",
		"flash_backend_error":     "Le service de facturation a renvoyé une erreur.",
		"flash_session_expired":   "La session de modification a expiré.",
		"invoice_finalized":       "La facture est finalisée et ne peut plus être modifiée.",
		"index_out_of_range":      "Ligne introuvable.",
		"invalid_quantity":        "La quantité doit être au moins 1.",
		"no_product":              "Choisissez un produit.",
	},
	"en": {
		"app_name":      "Invoicing",
		"nav_invoices":  "Invoices",
		"nav_customers": "Customers",
		"nav_products":  "Products",

		"required":         "Required",
		"invalid":          "Invalid",
		"invalid_date":     "Invalid date (YYYY-MM-DD)",
		"before_date":      "Must be on or after the date",
		"too_small":        "Value too small",
		"not_found":        "Not found",
		"unknown_line":     "Unknown line",
		"must_be_positive": "Must be positive",

		"invoices_title":    "Invoices",
		"invoice_title":     "Invoice",
		"invoice_new":       "New invoice",
		"invoice_edit":      "Edit invoice",
		"invoice_export":    "Export (XLSX)",
		"invoice_pdf":       "Download PDF",
		"col_id":            "Id",
		"col_customer":      "Customer",
		"col_address":       "Address",
		"col_total":         "Total",
		"col_tax":           "Tax",
		"col_finalized":     "Finalized",
		"col_paid":          "Paid",
		"col_date":          "Date",
		"col_deadline":      "Deadline",
		"col_actions":       "Actions",
		"col_product":       "Product",
		"col_quantity":      "Quantity",
		"col_unit":          "Unit",
		"col_unit_price_ht": "Unit price (excl. tax)",
		"col_vat_rate":      "VAT rate",
		"col_unit_tax":      "Unit tax",
		"col_unit_price":    "Unit price",
		"col_name":          "Name",
		"col_city":          "City",
		"col_country":       "Country",
		"col_label":         "Label",
		"yes":               "Yes",
		"no":                "No",
		"action_edit":       "Edit",
		"action_delete":     "Delete",
		"action_finalize":   "Finalize",
		"action_pay":        "Pay",
		"action_view":       "View",
		"action_save":       "Save",
		"action_cancel":     "Cancel",
		"action_add":        "Add",
		"action_remove":     "Remove",
		"action_restore":    "Restore",
		"action_search":     "Search",
		"status_finalized":  "Finalized",
		"status_paid":       "Paid",
		"status_draft":      "Draft",
		"confirm_delete":    "Are you sure you want to delete this invoice?",
		"confirm_finalize":  "Are you sure you want to finalize this invoice?",
		"confirm_pay":       "Are you sure you want to pay this invoice?",
		"empty_list":        "Nothing here yet.",
		"per_page":          "Per page",
		"page_first":        "First",
		"page_prev":         "Previous",
		"page_next":         "Next",
		"page_last":         "Last",
		"lines_title":       "Lines",
		"lines_new":         "New lines",
		"line_marked":       "Will be removed",
		"add_line":          "Add a line",
		"total_without_tax": "Total excl. tax",
		"total_tax":         "Total tax",
		"total_with_tax":    "Total incl. tax",
		"customers_title":   "Customers",
		"products_title":    "Products",
		"select_customer":   "Select a customer",
		"customer_search":   "Search customers",
		"select_product":    "Select a product",
		"unit_hour":         "hour",
		"unit_day":          "day",
		"unit_piece":        "piece",

		"flash_invoice_saved":     "Invoice saved.",
		"flash_invoice_created":   "Invoice created.",
		"flash_invoice_finalized": "Invoice finalized.",
		"flash_invoice_paid":      "Invoice marked as paid.",
		"flash_invoice_deleted":   "Invoice deleted.",
		"flash_form_invalid":      "The form has errors.",
		"flash_backend_error":     "The invoicing service returned an error.",
		"flash_session_expired":   "The edit session has expired.",
		"invoice_finalized":       "The invoice is finalized and can no longer be changed.",
		"index_out_of_range":      "Line not found.",
		"invalid_quantity":        "Quantity must be at least 1.",
		"no_product":              "Pick a product.",
	},
}
