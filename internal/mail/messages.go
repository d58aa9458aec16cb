package mail

import (
	"fmt"

	"shopcore/internal/model"
)

// OrderConfirmation builds the post-payment confirmation email with the
// invoice PDF attached.
func OrderConfirmation(to string, order *model.Order, user *model.User, invoicePath string) Message {
	return Message{
		To:      to,
		Subject: fmt.Sprintf("Votre facture pour la commande #%d", order.ID),
		HTML: fmt.Sprintf(`<p>Bonjour %s,</p>
<p>Merci pour votre commande <strong>#%d</strong>.</p>
<p>Vous trouverez en pièce jointe la facture au format PDF.</p>
<p>Merci de votre confiance !</p>`, user.FirstName, order.ID),
		AttachmentPath: invoicePath,
	}
}

// OrderStatusChanged notifies the order's owner of an admin status update.
func OrderStatusChanged(to string, order *model.Order, user *model.User) Message {
	return Message{
		To:      to,
		Subject: fmt.Sprintf("Commande #%d : %s", order.ID, order.Status),
		HTML: fmt.Sprintf(`<p>Bonjour %s,</p>
<p>Le statut de votre commande <strong>#%d</strong> est maintenant : <strong>%s</strong>.</p>`,
			user.FirstName, order.ID, order.Status),
	}
}

// Verification carries the email verification link.
func Verification(to, frontendURL, token string) Message {
	url := fmt.Sprintf("%s/verify-email?token=%s", frontendURL, token)
	return Message{
		To:      to,
		Subject: "Confirmation de votre adresse email",
		HTML: fmt.Sprintf(`<p>Merci de vous être inscrit.</p>
<p>Cliquez sur le lien ci-dessous pour activer votre compte :</p>
<p><a href="%s">Activer mon compte</a></p>`, url),
	}
}

// PasswordReset carries the reset link.
func PasswordReset(to, frontendURL, token string) Message {
	url := fmt.Sprintf("%s/reset-password?token=%s", frontendURL, token)
	return Message{
		To:      to,
		Subject: "Réinitialisation de votre mot de passe",
		HTML: fmt.Sprintf(`<p>Une réinitialisation de mot de passe a été demandée pour ce compte.</p>
<p><a href="%s">Choisir un nouveau mot de passe</a></p>
<p>Si vous n'êtes pas à l'origine de cette demande, ignorez cet email.</p>`, url),
	}
}

// NewProductAlert announces a product to a subscribed user.
func NewProductAlert(to string, product *model.Product) Message {
	return Message{
		To:      to,
		Subject: fmt.Sprintf("Nouveau produit : %s", product.Name),
		HTML: fmt.Sprintf(`<p>Un nouveau produit vient d'arriver : <strong>%s</strong>.</p>
<p>Prix : %s €</p>`, product.Name, product.EffectivePrice().StringFixed(2)),
	}
}
