package app

import "smart-board-game/internal/domain"

// SampleRounds are the built-in rounds used until a repository provides data.
func SampleRounds() []domain.Round {
	return []domain.Round{
		sampleRound("round1", "Babak 1 - Dasar Akuntansi", 2, 2, 2, 0, 0, 0),
		sampleRound("round2", "Babak 2 - Siklus Akuntansi", 1, 1, 2, 2, 0, 0),
		sampleRound("round3", "Babak 3 - Laporan Keuangan", 0, 0, 1, 1, 2, 2),
	}
}

// SampleQuestions is a small true/false accounting question bank, two per category.
func SampleQuestions() []domain.Question {
	return []domain.Question{
		trueFalse("q1", domain.C1, "Aset adalah sumber daya yang dikuasai oleh entitas sebagai akibat dari peristiwa masa lalu.", true),
		trueFalse("q2", domain.C1, "Liabilitas adalah hak residual atas aset entitas setelah dikurangi semua liabilitas.", false),
		trueFalse("q3", domain.C2, "Pendapatan diakui ketika terjadi peningkatan manfaat ekonomi.", true),
		trueFalse("q4", domain.C2, "Beban adalah penurunan manfaat ekonomi selama periode akuntansi.", true),
		trueFalse("q5", domain.C3, "Jurnal umum digunakan untuk mencatat transaksi secara kronologis.", true),
		trueFalse("q6", domain.C3, "Buku besar adalah kumpulan akun-akun yang saling berhubungan.", true),
		trueFalse("q7", domain.C4, "Neraca saldo disusun setelah posting ke buku besar.", true),
		trueFalse("q8", domain.C4, "Jurnal penyesuaian dibuat di awal periode akuntansi.", false),
		trueFalse("q9", domain.C5, "Laporan laba rugi menunjukkan posisi keuangan perusahaan.", false),
		trueFalse("q10", domain.C5, "Laporan arus kas terdiri dari tiga aktivitas: operasi, investasi, dan pendanaan.", true),
		trueFalse("q11", domain.C6, "Jurnal penutup dibuat untuk menutup akun nominal.", true),
		trueFalse("q12", domain.C6, "Akun riil tidak perlu ditutup pada akhir periode.", true),
	}
}

func sampleRound(id, name string, c1, c2, c3, c4, c5, c6 int) domain.Round {
	counts := map[domain.Category]int{
		domain.C1: c1, domain.C2: c2, domain.C3: c3,
		domain.C4: c4, domain.C5: c5, domain.C6: c6,
	}
	return domain.Round{ID: id, Name: name, QuestionCounts: counts, TotalQuestions: c1 + c2 + c3 + c4 + c5 + c6}
}

func trueFalse(id string, category domain.Category, prompt string, correct bool) domain.Question {
	answer := domain.BoolAnswer(correct)
	return domain.Question{
		ID:            id,
		Category:      category,
		Type:          domain.TypeTrueFalse,
		Prompt:        prompt,
		CorrectAnswer: &answer,
		TimeLimit:     30,
		Points:        100,
	}
}
