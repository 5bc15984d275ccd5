package utils

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Jalali (Persian) calendar conversion and digit localization. All schedule
// arithmetic inside the services runs on plain time.Time day offsets; these
// helpers are used only at the input/output boundary.

var gregorianDayOffsets = [12]int{0, 31, 59, 90, 120, 151, 181, 212, 243, 273, 304, 334}

var persianDigits = [10]rune{'۰', '۱', '۲', '۳', '۴', '۵', '۶', '۷', '۸', '۹'}

// GregorianToJalali converts a Gregorian calendar date to Jalali year, month
// and day.
func GregorianToJalali(gy, gm, gd int) (int, int, int) {
	jy := 979
	gy2 := gy - 1600
	if gy <= 1600 {
		jy = 0
		gy2 = gy - 621
	}
	// Count the current year's leap day once the date is past February.
	leapBase := gy2
	if gm > 2 {
		leapBase = gy2 + 1
	}
	days := 365*gy2 + (leapBase+3)/4 - (leapBase+99)/100 + (leapBase+399)/400 - 80 + gd + gregorianDayOffsets[gm-1]
	jy += 33 * (days / 12053)
	days %= 12053
	jy += 4 * (days / 1461)
	days %= 1461
	if days > 365 {
		jy += (days - 1) / 365
		days = (days - 1) % 365
	}
	var jm, jd int
	if days < 186 {
		jm = 1 + days/31
		jd = 1 + days%31
	} else {
		jm = 7 + (days-186)/30
		jd = 1 + (days-186)%30
	}
	return jy, jm, jd
}

// JalaliToGregorian converts a Jalali calendar date to a UTC midnight
// time.Time.
func JalaliToGregorian(jy, jm, jd int) time.Time {
	gy := 1600
	if jy <= 979 {
		gy = 621
	} else {
		jy -= 979
	}
	days := 365*jy + (jy/33)*8 + ((jy%33)+3)/4 + 78 + jd
	if jm < 7 {
		days += (jm - 1) * 31
	} else {
		days += (jm-7)*30 + 186
	}
	gy += 400 * (days / 146097)
	days %= 146097
	if days > 36524 {
		days--
		gy += 100 * (days / 36524)
		days %= 36524
		if days >= 365 {
			days++
		}
	}
	gy += 4 * (days / 1461)
	days %= 1461
	if days > 365 {
		gy += (days - 1) / 365
		days = (days - 1) % 365
	}
	gd := days + 1

	leap := (gy%4 == 0 && gy%100 != 0) || gy%400 == 0
	monthDays := [12]int{31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}
	if leap {
		monthDays[1] = 29
	}
	gm := 1
	for gm <= 12 && gd > monthDays[gm-1] {
		gd -= monthDays[gm-1]
		gm++
	}
	return time.Date(gy, time.Month(gm), gd, 0, 0, 0, 0, time.UTC)
}

// ToPersianDigits replaces ASCII digits in s with Persian digits.
func ToPersianDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(persianDigits[r-'0'])
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ToEnglishDigits replaces Persian digits in s with ASCII digits.
func ToEnglishDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		replaced := false
		for i, p := range persianDigits {
			if r == p {
				b.WriteRune(rune('0' + i))
				replaced = true
				break
			}
		}
		if !replaced {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// FormatDatePersian renders t as a Jalali YYYY/MM/DD string in Persian
// digits. The zero time renders as an empty string.
func FormatDatePersian(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	jy, jm, jd := GregorianToJalali(t.Year(), int(t.Month()), t.Day())
	return ToPersianDigits(fmt.Sprintf("%d/%02d/%02d", jy, jm, jd))
}

// ParseDate parses a display date string. Jalali YYYY/MM/DD (years
// 1300-1500), Gregorian YYYY/MM/DD and RFC 3339 are accepted; Persian
// digits are normalized first.
func ParseDate(s string) (time.Time, error) {
	s = ToEnglishDigits(strings.TrimSpace(s))
	if s == "" {
		return time.Time{}, errors.New("empty date")
	}

	if strings.Contains(s, "/") {
		parts := strings.Split(s, "/")
		if len(parts) == 3 {
			year, err1 := strconv.Atoi(parts[0])
			month, err2 := strconv.Atoi(parts[1])
			day, err3 := strconv.Atoi(parts[2])
			if err1 == nil && err2 == nil && err3 == nil && month >= 1 && month <= 12 && day >= 1 && day <= 31 {
				if year > 1300 && year < 1500 {
					return JalaliToGregorian(year, month, day), nil
				}
				return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), nil
			}
		}
		return time.Time{}, fmt.Errorf("unparsable date %q", s)
	}

	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("unparsable date %q", s)
}

// FormatAmount renders a minor-unit amount with thousand separators in
// Persian digits.
func FormatAmount(amount int64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	digits := strconv.FormatInt(amount, 10)
	var groups []string
	for len(digits) > 3 {
		groups = append([]string{digits[len(digits)-3:]}, groups...)
		digits = digits[:len(digits)-3]
	}
	groups = append([]string{digits}, groups...)
	return ToPersianDigits(sign + strings.Join(groups, ","))
}

// DaysUntilDue returns the number of whole days from today (UTC midnight)
// until due. Negative values mean the date is overdue.
func DaysUntilDue(due time.Time, now time.Time) int {
	truncate := func(t time.Time) time.Time {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	}
	return int(truncate(due).Sub(truncate(now)).Hours() / 24)
}
