package auth

import "testing"

func TestPasswordHashVerify(t *testing.T) {
	passwords := NewPasswordService("site-salt")

	hash, err := passwords.Hash("hunter2")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}

	t.Run("correct password verifies", func(t *testing.T) {
		ok, err := passwords.Verify("hunter2", hash)
		if err != nil {
			t.Fatalf("Verify() error = %v", err)
		}
		if !ok {
			t.Error("expected correct password to verify")
		}
	})

	t.Run("wrong password is a normal false, not an error", func(t *testing.T) {
		ok, err := passwords.Verify("hunter3", hash)
		if err != nil {
			t.Fatalf("Verify() error = %v", err)
		}
		if ok {
			t.Error("expected wrong password to fail verification")
		}
	})

	t.Run("corrupted hash is an error", func(t *testing.T) {
		if _, err := passwords.Verify("hunter2", "not-a-bcrypt-hash"); err == nil {
			t.Error("expected an error for a malformed stored hash")
		}
	})
}

func TestPasswordHashesDiffer(t *testing.T) {
	passwords := NewPasswordService("site-salt")

	first, err := passwords.Hash("same-password")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	second, err := passwords.Hash("same-password")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}

	if first == second {
		t.Error("expected two hashes of the same password to differ")
	}

	for _, hash := range []string{first, second} {
		ok, err := passwords.Verify("same-password", hash)
		if err != nil || !ok {
			t.Errorf("expected both hashes to verify, ok=%v err=%v", ok, err)
		}
	}
}

func TestPasswordSaltChangesHash(t *testing.T) {
	hash, err := NewPasswordService("salt-a").Hash("hunter2")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}

	ok, err := NewPasswordService("salt-b").Verify("hunter2", hash)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if ok {
		t.Error("expected a hash made with another salt to fail verification")
	}
}
