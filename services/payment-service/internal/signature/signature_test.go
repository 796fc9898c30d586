package signature

import "testing"

func TestVerify(t *testing.T) {
	const secret = "test_secret"
	sig := Compute("order_123", "pay_456", secret)

	if !Verify("order_123", "pay_456", sig, secret) {
		t.Fatal("valid signature should verify")
	}
	if Verify("order_123", "pay_456", sig, "other_secret") {
		t.Fatal("signature should fail under a different secret")
	}
	if Verify("order_999", "pay_456", sig, secret) {
		t.Fatal("signature should fail for a different order")
	}
	if Verify("order_123", "pay_999", sig, secret) {
		t.Fatal("signature should fail for a different payment")
	}
}

func TestVerify_TamperedSignature(t *testing.T) {
	const secret = "test_secret"
	sig := Compute("order_123", "pay_456", secret)

	// Flip one hex digit.
	tampered := []byte(sig)
	if tampered[0] == 'a' {
		tampered[0] = 'b'
	} else {
		tampered[0] = 'a'
	}
	if Verify("order_123", "pay_456", string(tampered), secret) {
		t.Fatal("tampered signature should fail")
	}
}

func TestVerify_EmptyInputs(t *testing.T) {
	const secret = "test_secret"
	if Verify("", "pay_456", Compute("", "pay_456", secret), secret) {
		t.Fatal("empty order id should fail")
	}
	if Verify("order_123", "", Compute("order_123", "", secret), secret) {
		t.Fatal("empty payment id should fail")
	}
	if Verify("order_123", "pay_456", "", secret) {
		t.Fatal("empty signature should fail")
	}
}
