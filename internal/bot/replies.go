package bot

import (
	"fmt"
	"strings"

	"github.com/RasyaGtps/siaku-whatsapp-service/internal/siakad"
	"github.com/RasyaGtps/siaku-whatsapp-service/internal/store"
)

const (
	replyBlocked = "❌ Anda telah di-block oleh owner bot."

	replyAlreadyOwner = "✅ Kamu sudah menjadi owner bot!"
	replyOwnerTaken   = "❌ Sudah ada owner bot!\n\nBot ini hanya bisa memiliki 1 owner."
	replyOwnerOnly    = "❌ Perintah ini hanya untuk owner bot."

	replyCodeGenerated = "🔐 *VERIFIKASI OWNER BOT*\n\n" +
		"Kode verifikasi telah digenerate!\n\n" +
		"📋 Cek terminal server untuk melihat kode verifikasi\n" +
		"📤 Kirim kode tersebut ke chat ini untuk jadi owner\n" +
		"⏰ Kode berlaku selama 5 menit\n\n" +
		"Contoh: kirim kode 6 digit yang muncul di terminal"

	replyCodeExpired  = "❌ Kode verifikasi sudah expired! Kirim /jadiowner untuk generate kode baru."
	replyCodeMismatch = "❌ Kode verifikasi salah! Coba lagi atau kirim /jadiowner untuk kode baru."

	replyOwnerGranted = "🎉 *SELAMAT!*\n\n" +
		"✅ Kamu sekarang adalah *OWNER* bot ini!\n\n" +
		"Akses penuh telah diberikan.\n" +
		"Gunakan dengan bijak! 👑"

	replyNotOwner = "❌ Kamu bukan owner bot.\n\nKirim /jadiowner untuk menjadi owner."

	replyOwnerReleased = "✅ *OWNERSHIP RELEASED*\n\n" +
		"Kamu sudah bukan owner bot lagi.\n" +
		"Terima kasih telah menjadi owner! 👋"

	replyGantiNamaUsage = "❌ Format: /gantinama [nama baru]\n\nContoh: /gantinama SIAku Bot"
	replyNameTooLong    = "❌ Nama terlalu panjang! Maksimal 25 karakter."

	replyGantiPP = "📷 *CARA GANTI PROFILE PICTURE*\n\n" +
		"Step by step:\n\n" +
		"1️⃣ Pilih foto dari galeri\n" +
		"2️⃣ Ketik caption: *setpp*\n" +
		"3️⃣ Kirim!\n\n" +
		"✅ Bot akan otomatis ganti PP-nya!"

	replyProcessingImage = "⏳ Memproses gambar..."

	replyPPUpdated = "✅ *PROFILE PICTURE BERHASIL DIUBAH!*\n\n" +
		"📷 PP bot sudah diupdate dengan foto yang kamu kirim!\n\n" +
		"✨ Refresh WhatsApp untuk melihat perubahan."

	replyBlockUsage   = "❌ Format: /block [nomor]\n\nContoh: /block 628123456789"
	replyUnblockUsage = "❌ Format: /unblock [nomor]\n\nContoh: /unblock 628123456789"
	replyNotBlocked   = "❌ User ini tidak di-block!"
	replyNoBlocked    = "✅ Tidak ada user yang di-block"

	replyNIMUsage = "❌ Format: /nim [nomor_nim]\n\nContoh: /nim 1234567890"

	replyLoginUsage = "❌ Format: /login [username] [password]\n\nContoh: /login budi123 rahasia"

	replyBadCredentials = "❌ Username atau password salah!\n\nPeriksa kembali akun SIAku kamu."

	replyLoginRequired = "❌ Kamu belum login!\n\nKirim /login [username] [password] untuk masuk."

	replyPhoneConflict = "🚫 *LOGIN DITOLAK*\n\n" +
		"Akun ini sudah terdaftar dengan nomor HP lain!\n\n" +
		"Pemilik akun telah diberi tahu tentang percobaan login ini.\n" +
		"Jika kamu pemilik akun, login dari nomor yang terdaftar."

	replyBackendDown = "❌ Terjadi kesalahan saat menghubungi server SIAku.\n\nSilakan coba lagi nanti."

	replyLoggedOut = "✅ *LOGOUT BERHASIL*\n\nSampai jumpa lagi! 👋"
)

func replyCekOwner(phone string) string {
	return "✅ *STATUS OWNER*\n\n" +
		"👑 Kamu adalah owner bot!\n" +
		"📱 Phone: " + phone
}

func replyNameChanged(name string) string {
	return "✅ *NAMA BOT BERHASIL DIUBAH!*\n\n" +
		"📝 Nama Baru: *" + name + "*\n\n" +
		"✨ Nama profil WhatsApp sudah terupdate!\n" +
		"Cek profil bot untuk melihat perubahan."
}

func replyUserBlocked(phone string) string {
	return "✅ User berhasil di-block!\n\n🚫 Phone: " + phone
}

func replyUserUnblocked(phone string) string {
	return "✅ User berhasil di-unblock!\n\n✓ Phone: " + phone
}

func replyBlockedList(phones []string) string {
	var b strings.Builder
	b.WriteString("🚫 *DAFTAR USER BLOCKED*\n\n")
	for i, phone := range phones {
		fmt.Fprintf(&b, "%d. %s\n", i+1, phone)
	}
	return b.String()
}

func replySearchingNIM(nim string) string {
	return "🔍 Mencari data mahasiswa dengan NIM: *" + nim + "*..."
}

func replyNIMNotFound(nim string) string {
	return "❌ Mahasiswa dengan NIM *" + nim + "* tidak ditemukan.\n\nPastikan NIM yang dimasukkan benar!"
}

func replyMahasiswa(m *siakad.Mahasiswa) string {
	phone := m.PhoneNumber
	if phone == "" {
		phone = "-"
	}
	var b strings.Builder
	b.WriteString("👤 *DATA MAHASISWA*\n\n")
	b.WriteString("📌 NIM: " + m.NIM + "\n")
	b.WriteString("👨‍🎓 Nama: " + m.Nama + "\n")
	b.WriteString("🏫 Jurusan: " + m.Jurusan + "\n")
	fmt.Fprintf(&b, "📊 IPK: %.2f\n", m.IPK)
	fmt.Fprintf(&b, "📚 Semester: %d\n", m.Semester)
	b.WriteString("📱 No. HP: " + phone + "\n")
	b.WriteString("✅ Status: " + m.StatusAkademik + "\n")
	fmt.Fprintf(&b, "📖 Total Courses: %d\n\n", m.TotalCourses)
	b.WriteString("_Data dari SIAku Backend_")
	return b.String()
}

func replyLoginSuccess(s store.Session) string {
	return "🎉 *LOGIN BERHASIL!*\n\n" +
		"👤 Nama: " + s.Nama + "\n" +
		"📌 " + identifierLabel(s.Role) + ": " + s.Identifier + "\n" +
		"🎓 Role: " + string(s.Role) + "\n\n" +
		"Kirim /profile untuk melihat data akun kamu."
}

func replyAlreadyLoggedIn(s store.Session) string {
	return "✅ Kamu sudah login sebagai *" + s.Nama + "*.\n\n" +
		"Kirim /logout dulu jika ingin ganti akun."
}

func replyProfile(s store.Session) string {
	return "👤 *PROFIL AKUN*\n\n" +
		"📝 Username: " + s.Username + "\n" +
		"👤 Nama: " + s.Nama + "\n" +
		"📌 " + identifierLabel(s.Role) + ": " + s.Identifier + "\n" +
		"🎓 Role: " + string(s.Role) + "\n" +
		"🕐 Login: " + s.LoginAt.Format("2006-01-02 15:04:05")
}

func identifierLabel(role store.Role) string {
	if role.IsMahasiswa() {
		return "NIM"
	}
	return "NIDN"
}

func replyInfoBot(name string, ownerPhone string, blockedCount int, connected bool) string {
	if name == "" {
		name = "SIAku Bot"
	}
	if ownerPhone == "" {
		ownerPhone = "Belum ada"
	}
	status := "Disconnected"
	if connected {
		status = "Connected"
	}
	return "ℹ️ *INFO BOT*\n\n" +
		"📝 Nama: " + name + "\n" +
		"👑 Owner: " + ownerPhone + "\n" +
		fmt.Sprintf("🚫 Blocked Users: %d\n", blockedCount) +
		"📱 Status: " + status
}

func replyMenu(owner bool, loggedIn bool) string {
	var b strings.Builder
	b.WriteString("📋 *MENU BOT*\n\n")
	b.WriteString("*Commands Umum:*\n")
	b.WriteString("/menu - Tampilkan menu\n")
	b.WriteString("/help - Bantuan\n")
	b.WriteString("/login [username] [password] - Login SIAku\n")
	b.WriteString("/jadiowner - Jadi owner bot\n")
	b.WriteString("/cekowner - Cek status owner\n")

	if loggedIn {
		b.WriteString("\n*Commands Akun:*\n")
		b.WriteString("/profile - Lihat profil akun\n")
		b.WriteString("/nim [nomor] - Cek data mahasiswa\n")
		b.WriteString("/logout - Keluar dari akun\n")
	}

	if owner {
		b.WriteString("\n*Commands Owner:*\n")
		b.WriteString("/gantinama [nama] - Ganti nama bot\n")
		b.WriteString("/gantipp - Cara ganti PP bot\n")
		b.WriteString("/block [nomor] - Block user\n")
		b.WriteString("/unblock [nomor] - Unblock user\n")
		b.WriteString("/listblock - List blocked users\n")
		b.WriteString("/infobot - Info bot\n")
		b.WriteString("/keluarowner - Keluar ownership\n")
	}

	return b.String()
}
