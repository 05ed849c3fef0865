// Package persistence maps domain entities onto the wide keyed store:
// key layout, attribute codec and the repository implementations.
package persistence

import "strings"

// Entity type tags stored in the entity_type column.
const (
	typeTenant        = "TENANT"
	typeProduct       = "PRODUCT"
	typeTransaction   = "TRANSACTION"
	typePayment       = "PAYMENT"
	typePurchaseOrder = "PURCHASE_ORDER"
	typeContact       = "CONTACT"
	typeMessage       = "MESSAGE"
	typeUser          = "USER"
	typeInsight       = "INSIGHT"
	typeGateway       = "GATEWAY_CONNECTION"
	typePhoneLine     = "PHONE_LINE"
)

// Sort-key prefixes. Transactions embed their creation timestamp so a
// partition query returns them in chronological order.
const (
	transactionPrefix = "TXN#"
	productPrefix     = "PRODUCT#"
	paymentPrefix     = "PAYMENT#"
	orderPrefix       = "PO#"
	contactPrefix     = "CONTACT#"
	messagePrefix     = "MESSAGE#"
	userPrefix        = "USER#"
	insightPrefix     = "INSIGHT#"
)

func tenantPK(tenantID string) string { return "TENANT#" + tenantID }

func tenantSK(tenantID string) string   { return "TENANT#" + tenantID }
func productSK(productID string) string { return productPrefix + productID }
func paymentSK(paymentID string) string { return paymentPrefix + paymentID }
func orderSK(orderID string) string     { return orderPrefix + orderID }
func contactSK(contactID string) string { return contactPrefix + contactID }
func messageSK(messageID string) string { return messagePrefix + messageID }
func userSK(userID string) string       { return userPrefix + userID }
func insightSK(date string) string      { return insightPrefix + date }
func gatewaySK(tenantID string) string  { return "GATEWAY#" + tenantID }

func transactionSK(createdAt, id string) string {
	return transactionPrefix + createdAt + "#" + id
}

// Secondary index keys.
func categoryIndexSK(category string) string     { return "CATEGORY#" + category }
func externalPaymentIndexPK(extID string) string { return "EXTPAY#" + extID }
func merchantIndexPK(merchantID string) string   { return "MERCHANT#" + merchantID }

// phoneLineKey addresses a claimed inbound number. Numbers are
// normalized so formatting differences resolve to the same line.
func phoneLineKey(number string) string {
	return "PHONE#" + normalizePhone(number)
}

func normalizePhone(number string) string {
	replacer := strings.NewReplacer(" ", "", "-", "", "+", "", "(", "", ")", "")
	return replacer.Replace(strings.TrimSpace(number))
}
