package i18n

var ptBRMessages = map[Code]string{
	CodeInternal:       "Ocorreu um erro inesperado",
	CodeRequestInvalid: "A requisição está malformada",
	CodeCaptchaFailed:  "Falha na verificação do captcha",

	CodeUsernameInvalid: "O nome de usuário deve ter pelo menos {{.MinLength}} caracteres",
	CodeEmailInvalid:    "Endereço de e-mail inválido",
	CodeUsernameTaken:   "Nome de usuário já está em uso",
	CodeEmailTaken:      "E-mail já cadastrado",
	CodeUserNotFound:    "Usuário não encontrado",

	CodePasswordTooShort:       "A senha deve ter pelo menos {{.MinLength}} caracteres",
	CodePasswordMissingUpper:   "A senha deve conter uma letra maiúscula",
	CodePasswordMissingLower:   "A senha deve conter uma letra minúscula",
	CodePasswordMissingDigit:   "A senha deve conter um dígito",
	CodePasswordMissingSpecial: "A senha deve conter um caractere especial",
	CodePasswordReused:         "Senha usada recentemente, escolha outra",
	CodePasswordNotSet:         "Esta conta entra com uma passkey",

	CodeInvalidCredentials:  "Usuário ou senha inválidos",
	CodeAccountNotVerified:  "A conta ainda não foi ativada",
	CodeAccountInactive:     "A conta está desativada",
	CodeTokenMissing:        "Autenticação necessária",
	CodeTokenInvalid:        "Sessão inválida",
	CodeTokenExpired:        "Sessão expirada",
	CodeLinkNotFound:        "Link inválido ou já utilizado",
	CodeLinkExpired:         "O link expirou",
	CodeCeremonyExpired:     "Sessão de passkey expirada, tente novamente",
	CodePasskeyNotFound:     "Nenhuma passkey configurada para esta conta",
	CodePasskeyVerification: "Falha na verificação da passkey",

	MessageRegistrationStarted: "Cadastro recebido, verifique seu e-mail para ativar a conta",
}
