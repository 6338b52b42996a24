package money

// currencies is the closed set exposed as the CurrencyCode enum.
var currencies = []Currency{
	left("AED", "د.إ.‏", ",", ".", true, 2),
	left("AFN", "؋", ",", ".", false, 2),
	right("ALL", "Lek", ".", ",", false, 2),
	right("AMD", "֏", ",", ".", true, 2),
	left("ANG", "ƒ", ",", ".", false, 2),
	left("AOA", "Kz", ",", ".", false, 2),
	left("ARS", "$", ".", ",", true, 2),
	left("AUD", "$", ",", ".", false, 2),
	left("AWG", "ƒ", ",", ".", false, 2),
	left("AZN", "₼", " ", ",", false, 2),
	right("BAM", "КМ", ".", ",", false, 2),
	left("BBD", "$", ",", ".", false, 2),
	left("BDT", "৳", ",", ".", true, 2),
	right("BGN", "лв.", " ", ",", true, 2),
	left("BHD", "د.ب.‏", ",", ".", true, 3),
	left("BIF", "FBu", ",", ".", false, 0),
	left("BMD", "$", ",", ".", false, 2),
	left("BND", "$", ".", ",", false, 2),
	left("BOB", "Bs", ".", ",", true, 2),
	left("BRL", "R$", ".", ",", true, 2),
	left("BSD", "$", ",", ".", false, 2),
	left("BTC", "Ƀ", ",", ".", false, 8),
	left("BTN", "Nu.", ",", ".", true, 2),
	left("BWP", "P", ",", ".", false, 2),
	right("BYR", "р.", " ", ",", true, 2),
	left("BZD", "BZ$", ",", ".", false, 2),
	left("CAD", "$", ",", ".", false, 2),
	right("CDF", "FC", ",", ".", false, 2),
	left("CHF", "CHF", "'", ".", true, 2),
	left("CLP", "$", ".", ",", false, 0),
	left("CNY", "¥", ",", ".", false, 2),
	left("COP", "$", ".", ",", true, 2),
	left("CRC", "₡", ".", ",", false, 2),
	right("CUC", "CUC", ",", ".", true, 2),
	left("CUP", "$MN", ",", ".", false, 2),
	left("CVE", "$", ",", ".", false, 2),
	right("CZK", "Kč", " ", ",", true, 2),
	left("DJF", "Fdj", ",", ".", false, 0),
	right("DKK", "kr.", ".", ",", true, 2),
	left("DOP", "RD$", ",", ".", false, 2),
	left("DZD", "د.ج.‏", ",", ".", true, 2),
	left("EGP", "ج.م.‏", ",", ".", true, 2),
	left("ERN", "Nfk", ",", ".", true, 2),
	left("ETB", "ETB", ",", ".", false, 2),
	right("EUR", "€", ".", ",", true, 2),
	left("FJD", "$", ",", ".", false, 2),
	left("FKP", "£", ",", ".", false, 2),
	left("GBP", "£", ",", ".", false, 2),
	right("GEL", "Lari", " ", ",", true, 2),
	left("GHS", "₵", ",", ".", false, 2),
	left("GIP", "£", ",", ".", false, 2),
	right("GMD", "D", ",", ".", false, 2),
	right("GNF", "FG", ",", ".", false, 0),
	left("GTQ", "Q", ",", ".", false, 2),
	left("GYD", "$", ",", ".", false, 2),
	left("HKD", "HK$", ",", ".", false, 2),
	left("HNL", "L.", ",", ".", true, 2),
	right("HRK", "kn", ".", ",", true, 2),
	left("HTG", "G", ",", ".", false, 2),
	right("HUF", "Ft", " ", ",", true, 2),
	left("IDR", "Rp", ".", ",", false, 0),
	left("ILS", "₪", ",", ".", true, 2),
	left("INR", "₹", ",", ".", true, 2),
	left("IQD", "د.ع.‏", ",", ".", true, 2),
	left("IRR", "﷼", ",", "/", true, 2),
	right("ISK", "kr.", ".", ",", true, 0),
	left("JMD", "J$", ",", ".", false, 2),
	left("JOD", "د.ا.‏", ",", ".", true, 3),
	left("JPY", "¥", ",", ".", false, 0),
	left("KES", "KSh", ",", ".", false, 2),
	right("KGS", "сом", " ", "-", true, 2),
	left("KHR", "៛", ",", ".", false, 0),
	right("KMF", "CF", ",", ".", false, 2),
	left("KPW", "₩", ",", ".", false, 0),
	left("KRW", "₩", ",", ".", false, 0),
	left("KWD", "د.ك.‏", ",", ".", true, 3),
	left("KYD", "$", ",", ".", false, 2),
	left("KZT", "₸", " ", "-", false, 2),
	right("LAK", "₭", ",", ".", false, 0),
	left("LBP", "ل.ل.‏", ",", ".", true, 2),
	right("LKR", "₨", ",", ".", true, 0),
	left("LRD", "$", ",", ".", false, 2),
	left("LSL", "M", ",", ".", false, 2),
	left("LYD", "د.ل.‏", ",", ".", false, 3),
	left("MAD", "د.م.‏", ",", ".", true, 2),
	right("MDL", "lei", ",", ".", true, 2),
	left("MGA", "Ar", ",", ".", false, 0),
	right("MKD", "ден.", ".", ",", true, 2),
	left("MMK", "K", ",", ".", false, 2),
	left("MNT", "₮", " ", ",", false, 2),
	left("MOP", "MOP$", ",", ".", false, 2),
	left("MRO", "UM", ",", ".", false, 2),
	left("MTL", "₤", ",", ".", false, 2),
	left("MUR", "₨", ",", ".", false, 2),
	right("MVR", "MVR", ",", ".", true, 2),
	left("MWK", "MK", ",", ".", false, 2),
	left("MXN", "$", ",", ".", true, 2),
	left("MYR", "RM", ",", ".", false, 2),
	left("MZN", "MT", ",", ".", false, 0),
	left("NAD", "N$", ",", ".", false, 2),
	left("NGN", "₦", ",", ".", false, 2),
	left("NIO", "C$", ",", ".", true, 2),
	left("NOK", "kr", " ", ",", true, 2),
	left("NPR", "नेरू", ",", ".", false, 2),
	left("NZD", "$", ",", ".", false, 2),
	left("OMR", "﷼", ",", ".", true, 3),
	left("PAB", "B/.", ",", ".", true, 2),
	left("PEN", "S/.", ",", ".", true, 2),
	left("PGK", "K", ",", ".", false, 2),
	left("PHP", "₱", ",", ".", false, 2),
	left("PKR", "Rs", ",", ".", false, 2),
	right("PLN", "zł", " ", ",", true, 2),
	left("PYG", "₲", ".", ",", true, 2),
	left("QAR", "﷼", ",", ".", true, 2),
	right("RON", "lei", ".", ",", true, 2),
	right("RSD", "Дин.", ".", ",", true, 2),
	right("RUB", "₽", " ", ",", true, 2),
	left("RWF", "RWF", " ", ",", true, 2),
	left("SAR", "﷼", ",", ".", true, 2),
	left("SBD", "S$", ",", ".", false, 2),
	right("SCR", "₨", ",", ".", false, 2),
	left("SDD", "LSd", ",", ".", false, 2),
	left("SDG", "£‏", ",", ".", false, 2),
	right("SEK", "kr", " ", ",", true, 2),
	left("SGD", "S$", ",", ".", false, 2),
	left("SHP", "£", ",", ".", false, 2),
	left("SLL", "Le", ",", ".", false, 2),
	left("SOS", "S", ",", ".", false, 2),
	left("SRD", "$", ",", ".", false, 2),
	left("STD", "Db", ",", ".", false, 2),
	left("SVC", "₡", ",", ".", false, 2),
	right("SYP", "£", ",", ".", true, 2),
	left("SZL", "E", ",", ".", false, 2),
	left("THB", "฿", ",", ".", false, 2),
	right("TJS", "TJS", " ", ";", true, 2),
	right("TMT", "m", " ", ",", false, 0),
	left("TND", "د.ت.‏", ",", ".", true, 3),
	left("TOP", "T$", ",", ".", false, 2),
	right("TRY", "TL", ".", ",", true, 2),
	left("TTD", "TT$", ",", ".", false, 2),
	left("TVD", "$", ",", ".", false, 2),
	left("TWD", "NT$", ",", ".", false, 2),
	left("TZS", "TSh", ",", ".", false, 2),
	left("UAH", "₴", " ", ",", false, 2),
	left("UGX", "USh", ",", ".", false, 2),
	left("USD", "$", ",", ".", false, 2),
	left("UYU", "$U", ".", ",", true, 2),
	right("UZS", "сўм", " ", ",", true, 2),
	left("VEB", "Bs.", ",", ".", true, 2),
	left("VEF", "Bs. F.", ".", ",", true, 2),
	right("VND", "₫", ".", ",", true, 0),
	right("VUV", "VT", ",", ".", false, 0),
	left("WST", "WS$", ",", ".", false, 2),
	right("XAF", "F", ",", ".", false, 2),
	left("XCD", "$", ",", ".", false, 2),
	left("XBT", "Ƀ", ",", ".", false, 8),
	right("XOF", "F", " ", ",", true, 2),
	right("XPF", "F", ",", ".", false, 2),
	left("YER", "﷼", ",", ".", true, 2),
	left("ZAR", "R", " ", ",", true, 2),
	left("ZMW", "ZK", ",", ".", false, 2),
	left("WON", "₩", ",", ".", false, 0),
}
